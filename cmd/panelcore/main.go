// Panelcore
// Copyright (c) 2026 The Panelcore Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Panelcore.
//
// Panelcore is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Panelcore is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Panelcore.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/avpanel/panelcore/pkg/config"
	"github.com/avpanel/panelcore/pkg/events"
	"github.com/avpanel/panelcore/pkg/ledmatrix"
	"github.com/avpanel/panelcore/pkg/panel"
	"github.com/avpanel/panelcore/pkg/serlink"
	"github.com/avpanel/panelcore/pkg/switchmatrix"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const defaultConfigDir = "/etc/panelcore"

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	configDir := flag.String("config", defaultConfigDir, "config directory")
	device := flag.String("device", "", "override serial device path")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.NewConfig(*configDir, config.BaseDefaults)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *verbose || cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("gpio host init: %w", err)
	}

	pins := cfg.PinNames()
	bus := &ledmatrix.GPIOBus{
		CLK:  mustPin(pins.Clock),
		DIN:  mustPin(pins.Data),
		STRB: mustPin(pins.Strobe),
	}
	if pins.OutputEnable != "" {
		bus.OE = mustPin(pins.OutputEnable)
	}

	rows, cols := cfg.SwitchDimensions()
	if len(pins.SwitchRows) < int(rows) || len(pins.SwitchCols) < int(cols) {
		return errors.New("pin lists smaller than configured switch matrix")
	}
	sampler := &switchmatrix.GPIOSampler{
		RowPins: lookupPins(pins.SwitchRows[:rows]),
		ColPins: lookupPins(pins.SwitchCols[:cols]),
	}
	if err := sampler.Init(); err != nil {
		return fmt.Errorf("switch matrix init: %w", err)
	}

	timings := cfg.BlinkTimings()
	leds := ledmatrix.NewMatrix(bus, nil, [ledmatrix.NumSpeedClasses]ledmatrix.BlinkTiming{
		{Bright: timings[0][0], Dark: timings[0][1]},
		{Bright: timings[1][0], Dark: timings[1][1]},
	}, cfg.BlinkStagger())

	switches, err := switchmatrix.NewMatrix(rows, cols, sampler, nil, switchmatrix.Thresholds{
		Debounce:  cfg.Debounce(),
		LongPress: cfg.LongPress(),
	})
	if err != nil {
		return fmt.Errorf("switch matrix: %w", err)
	}

	link := serlink.NewLink(nil)
	path := cfg.SerialDevice()
	if *device != "" {
		path = *device
	}
	if err := link.Open(path, cfg.SerialBaud()); err != nil {
		return fmt.Errorf("serial link: %w", err)
	}
	defer func() {
		if err := link.Close(); err != nil {
			log.Error().Err(err).Msg("serial link close failed")
		}
	}()

	queue := events.NewQueue(cfg.QueueCapacity())
	dispatcher := events.NewDispatcher()
	reporter := &events.TelegramReporter{
		Out:   link,
		Queue: queue,
		Names: events.NewNameTable(events.DefaultSwitchNames()),
	}

	controller := panel.NewController(cfg, nil, leds, switches, queue, dispatcher, reporter, link)
	if err := controller.Startup(); err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	log.Info().Str("serial", path).Msg("panelcore running")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := controller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func mustPin(name string) gpio.PinIO {
	pin := gpioreg.ByName(name)
	if pin == nil {
		log.Fatal().Str("pin", name).Msg("gpio pin not found")
	}
	return pin
}

func lookupPins(names []string) []gpio.PinIO {
	pins := make([]gpio.PinIO, len(names))
	for i, name := range names {
		pins[i] = mustPin(name)
	}
	return pins
}
