// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lps28

import "fmt"

// DeviceNotFoundError is returned by NewI2C when the byte read from the
// WHO_AM_I register is not the LPS28 identity. The most common causes are a
// wrong bus address or a different chip answering on the shared bus.
type DeviceNotFoundError struct {
	Addr uint16
	ID   byte
}

func (e *DeviceNotFoundError) Error() string {
	return fmt.Sprintf("lps28: no LPS28 at address 0x%02x, chip id read 0x%02x", e.Addr, e.ID)
}

// InvalidSettingError is returned by a setter when the supplied value is not
// a member of the setting's enumeration. The device register is left
// unmodified.
type InvalidSettingError struct {
	Setting string
	Value   byte
}

func (e *InvalidSettingError) Error() string {
	return fmt.Sprintf("lps28: invalid %s setting 0x%02x", e.Setting, e.Value)
}
