// Command button-events polls a push button on a GPIO input and publishes
// click and long-press events to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/button-events/internal/config"
	"github.com/sweeney/button-events/internal/gpio"
	"github.com/sweeney/button-events/internal/logic"
	"github.com/sweeney/button-events/internal/mqtt"
	"github.com/sweeney/button-events/internal/status"
	"github.com/sweeney/button-events/internal/web"
)

func main() {
	def := config.Default()
	flag.Duration(config.KeyPoll, def.Poll, "GPIO polling interval")
	flag.Duration(config.KeyDebounce, def.Debounce, "Debounce duration")
	flag.Duration(config.KeyLongPress, def.LongPress, "Hold time before the first long press event")
	flag.Duration(config.KeyLongPressRepeat, def.LongPressRepeat, "Interval between long press repeat events")
	flag.Duration(config.KeyMultiClick, def.MultiClick, "Window after a press in which another press continues the click session")
	flag.String(config.KeyChip, def.Chip, "GPIO chip (cdev backend)")
	flag.Int(config.KeyPin, def.Pin, "BCM pin number of the button")
	flag.String(config.KeyPull, def.Pull, "Input bias: none, up or down")
	flag.Bool(config.KeyActiveLow, def.ActiveLow, "Button pulls the line low when pressed")
	flag.String(config.KeyBackend, def.Backend, "GPIO backend: cdev or rpio")
	flag.String(config.KeyName, def.Name, "Button name, used in MQTT topics")
	flag.String(config.KeyBroker, def.Broker, "MQTT broker address")
	flag.Duration(config.KeyHeartbeat, def.Heartbeat, "Heartbeat interval (0 to disable)")
	flag.String(config.KeyHTTP, def.HTTP, "HTTP status address (empty to disable)")
	configPath := flag.String("config", "", "Config file (yaml, json or toml); watched for debounce changes")
	printState := flag.Bool("print-state", false, "Print current input level and exit")

	flag.Parse()

	loader, cfg, err := config.Load(*configPath, setFlags())
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := run(loader, cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// setFlags returns the flags given on the command line, keyed by name, so
// they take precedence over the config file.
func setFlags() map[string]any {
	out := make(map[string]any)
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" || f.Name == "print-state" {
			return
		}
		if g, ok := f.Value.(flag.Getter); ok {
			out[f.Name] = g.Get()
		}
	})
	return out
}

func run(loader *config.Loader, cfg config.Config, printState bool) error {
	pull, err := gpio.ParsePull(cfg.Pull)
	if err != nil {
		return err
	}
	reader, err := gpio.Open(gpio.Backend(cfg.Backend), cfg.Chip, cfg.Pin, pull)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	if printState {
		high, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		level := levelOf(high)
		fmt.Printf("%s: %s, pressed: %t\n", cfg.Name, level, level == cfg.Button().ActiveLevel())
		return nil
	}

	publisher := mqtt.NewRealPublisher(cfg.Broker, cfg.Name)
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	tracker.SetMQTTConnected(publisher.IsConnected())

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP)
	}

	reload := make(chan config.Config, 1)
	loader.Watch(func(c config.Config) {
		select {
		case reload <- c:
		default:
			log.Printf("config: reload already pending, dropping change")
		}
	})

	log.Printf("started: name=%s backend=%s pin=%d poll=%v debounce=%v broker=%s heartbeat=%v",
		cfg.Name, cfg.Backend, cfg.Pin, cfg.Poll, cfg.Debounce, cfg.Broker, cfg.Heartbeat)

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(reader, publisher, publisher, tracker, cfg, time.Now, ticker.C, sigCh, reload)
}

func runLoop(reader gpio.Reader, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, cfg config.Config, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal, reload <-chan config.Config) error {
	startTime := now()
	stats := logic.NewStats(startTime)

	// The clock and the input are latched once per tick so every decision
	// within a poll sees the same instant and level.
	tickTime := startTime
	bcfg := cfg.Button()
	level := logic.High
	if bcfg.ActiveLevel() == logic.High {
		level = logic.Low
	}

	button := logic.NewButton(
		logic.SamplerFunc(func() logic.Level { return level }),
		bcfg,
		func() time.Time { return tickTime },
	)
	button.SetHandler(func(b *logic.Button, ev logic.EventType) {
		event := logic.Event{
			Timestamp: tickTime,
			Type:      ev,
			Clicks:    b.ClickCount(),
		}
		if ev != logic.EventPressed {
			event.PressedFor = b.LastPressDuration()
		}
		stats.Record(ev)
		tracker.RecordEvent(event)

		log.Printf("event: %s clicks=%d pressed=%v", event.Type, event.Clicks, event.PressedFor)
		if err := publisher.Publish(event); err != nil {
			log.Printf("publish error: %v", err)
		}
	})

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
			tracker.Update(button, stats.Counts())
			snap := tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case next := <-reload:
			debounceChanged, restart := config.LiveChanges(cfg, next)
			if debounceChanged {
				log.Printf("config: debounce %v -> %v", cfg.Debounce, next.Debounce)
				button.SetDebounce(next.Debounce)
				tracker.SetDebounce(next.Debounce)
				cfg.Debounce = next.Debounce
			}
			if len(restart) > 0 {
				log.Printf("config: restart required to apply %v", restart)
			}

		case <-tick:
			tickTime = now()
			high, err := reader.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				continue
			}
			level = levelOf(high)
			button.Poll()

			if hbData := stats.CheckHeartbeat(tickTime, cfg.Heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v pressed=%d click_finish=%d longpress_first=%d",
					hbData.Uptime, hbData.Counts[logic.EventPressed], hbData.Counts[logic.EventClickFinish], hbData.Counts[logic.EventLongPressFirst])

				tracker.SetMQTTConnected(mqttStatus.IsConnected())
				tracker.Update(button, hbData.Counts)
				snap := tracker.Snapshot()
				hbEvent := mqtt.SystemEvent{
					Timestamp:  hbData.Timestamp,
					Event:      "HEARTBEAT",
					RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			tracker.Update(button, stats.Counts())
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
	}
}

func levelOf(high bool) logic.Level {
	if high {
		return logic.High
	}
	return logic.Low
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		Name:              cfg.Name,
		Backend:           cfg.Backend,
		Chip:              cfg.Chip,
		Pin:               cfg.Pin,
		Pull:              cfg.Pull,
		ActiveLow:         cfg.ActiveLow,
		PollMs:            cfg.Poll.Milliseconds(),
		DebounceMs:        cfg.Debounce.Milliseconds(),
		LongPressMs:       cfg.LongPress.Milliseconds(),
		LongPressRepeatMs: cfg.LongPressRepeat.Milliseconds(),
		MultiClickMs:      cfg.MultiClick.Milliseconds(),
		HeartbeatMs:       cfg.Heartbeat.Milliseconds(),
		Broker:            cfg.Broker,
		HTTPAddr:          cfg.HTTP,
	}
}
