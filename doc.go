// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lps28 controls an ST LPS28 (ILPS28QSW) absolute pressure and
// temperature sensor over I²C.
//
// The sensor measures up to 1260 hPa in its normal range, or up to 4060 hPa
// in its extended range at reduced resolution. The lps28.Dev type implements
// the physic.SenseEnv interface; the physic.Env results carry a pressure and
// a temperature value, the humidity is always 0.
//
// Configuration written to the device (data rate, resolution, full-scale
// range, thresholds) is held in its hardware registers until power-cycled.
//
// # Datasheet
//
// https://www.st.com/resource/en/datasheet/ilps28qsw.pdf
package lps28
