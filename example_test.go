// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lps28_test

import (
	"fmt"
	"log"

	"github.com/morrisrx/lps28"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	// Use i2creg I²C bus registry to find the first available I²C bus.
	b, err := i2creg.Open("")
	if err != nil {
		log.Fatalf("failed to open I²C: %v", err)
	}
	defer b.Close()

	// Create the sensor. Construction verifies the chip identity and starts
	// continuous sampling at 10Hz.
	dev, err := lps28.NewI2C(b, lps28.DefaultAddress)
	if err != nil {
		log.Fatal(err)
	}

	// Take a reading.
	env := physic.Env{}
	if err := dev.Sense(&env); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%8s %8s\n", env.Pressure, env.Temperature)
}

func Example_thresholds() {
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}
	b, err := i2creg.Open("")
	if err != nil {
		log.Fatalf("failed to open I²C: %v", err)
	}
	defer b.Close()

	dev, err := lps28.NewI2C(b, lps28.DefaultAddress)
	if err != nil {
		log.Fatal(err)
	}

	// Raise the interrupt flag when pressure exceeds 1030 hPa.
	if err := dev.SetPressureThreshold(1030); err != nil {
		log.Fatal(err)
	}
	if err := dev.SetHighThresholdEnabled(true); err != nil {
		log.Fatal(err)
	}

	exceeded, err := dev.HighThresholdExceeded()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("high threshold exceeded: %t\n", exceeded)
}
