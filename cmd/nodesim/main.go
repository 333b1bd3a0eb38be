package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Caring-Indians-2020/backend-medKit/internal/mqtt"
	"github.com/Caring-Indians-2020/backend-medKit/internal/telemetry"
	"github.com/Caring-Indians-2020/backend-medKit/pkg/zerolog_config"
)

const (
	delayHR   = 10 * time.Second
	delaySpO2 = 10 * time.Second
	delayBP   = 60 * time.Second

	ppgBurstLen = 100
)

func main() {
	zerolog_config.SetAppPrefix("nodesim")
	zerolog_config.StartupWithEnv("", "logs", getEnv("LOG_LEVEL", "info"))

	log.Info().Msg("Starting bedside monitor simulator")

	client, err := mqtt.NewClient(mqtt.Options{
		Broker:   getEnv("MQTT_BROKER_URL", "tcp://127.0.0.1:1883"),
		ClientID: getEnv("MQTT_CLIENT_ID", "medkit-nodesim"),
		Username: getEnv("MQTT_USERNAME", ""),
		Password: getEnv("MQTT_PASSWORD", ""),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MQTT broker")
	}
	defer client.Disconnect()

	beds := parseBeds(getEnv("SIM_BEDS", "W1/1,W1/2,W1/3,W1/4"))
	if len(beds) == 0 {
		log.Fatal().Msg("No valid beds configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	for _, bed := range beds {
		sim := &bedSimulator{bed: bed, client: client}
		sim.onboardPatient()

		wg.Add(3)
		go func() { defer wg.Done(); sim.runHRProducer(ctx) }()
		go func() { defer wg.Done(); sim.runBPProducer(ctx) }()
		go func() { defer wg.Done(); sim.runSpO2Producer(ctx) }()
	}

	log.Info().Int("beds", len(beds)).Msg("Simulator running")
	<-sigChan
	log.Info().Msg("Received shutdown signal, stopping producers")
	cancel()
	wg.Wait()
}

func parseBeds(raw string) []telemetry.BedKey {
	var beds []telemetry.BedKey
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(entry), "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			log.Warn().Str("entry", entry).Msg("Skipping malformed bed entry")
			continue
		}
		beds = append(beds, telemetry.BedKey{WardNo: parts[0], BedNo: parts[1]})
	}
	return beds
}

type bedSimulator struct {
	bed    telemetry.BedKey
	client *mqtt.Client
}

func (s *bedSimulator) publish(parameter string, fields []string) {
	topic := s.bed.WardNo + "/" + s.bed.BedNo + "/" + parameter
	if err := s.client.Publish(topic, 1, []byte(strings.Join(fields, ","))); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Publish failed")
	}
}

// onboardPatient announces a synthetic patient for the bed, once.
func (s *bedSimulator) onboardPatient() {
	bedNo, _ := strconv.Atoi(s.bed.BedNo)
	patientID := bedNo * 1000

	s.publish(telemetry.ParamPatientDetails, []string{
		strconv.Itoa(patientID),
		fmt.Sprintf("Patient_%d", patientID),
		randChoice("M", "F", "O"),
		strconv.Itoa(randInt(15, 99)),  // age
		strconv.Itoa(randInt(100, 105)), // sysBP minima
		strconv.Itoa(randInt(135, 145)), // sysBP maxima
		strconv.Itoa(randInt(85, 93)),   // spO2 minima
		strconv.Itoa(randInt(50, 60)),   // HR minima
		strconv.Itoa(randInt(130, 140)), // HR maxima
		"127.0.0.1",
	})
}

func (s *bedSimulator) runHRProducer(ctx context.Context) {
	ticker := time.NewTicker(delayHR)
	defer ticker.Stop()

	hr := 70
	ecg := 80
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hr = nextRandomWalk(hr, 30, 150, 5)
			s.publish(telemetry.ParamHeartRate, []string{strconv.Itoa(hr)})
			ecg = nextRandomWalk(ecg, 40, 120, 3)
			s.publish(telemetry.ParamECG, []string{strconv.Itoa(ecg)})
		}
	}
}

func (s *bedSimulator) runBPProducer(ctx context.Context) {
	ticker := time.NewTicker(delayBP)
	defer ticker.Stop()

	sys := 110
	dia := 70
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sys = nextRandomWalk(sys, 100, 200, 5)
			dia = nextRandomWalk(dia, 30, sys, 5)
			s.publish(telemetry.ParamDiastolicBP, []string{strconv.Itoa(dia)})
			s.publish(telemetry.ParamSystolicBP, []string{strconv.Itoa(sys)})
		}
	}
}

// runSpO2Producer publishes the current SpO2 reading together with a
// fixed-length ppg burst walked from the same seed.
func (s *bedSimulator) runSpO2Producer(ctx context.Context) {
	ticker := time.NewTicker(delaySpO2)
	defer ticker.Stop()

	seed := 98
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			burst := make([]string, ppgBurstLen)
			for i := range burst {
				seed = nextRandomWalk(seed, 50, 100, 1)
				burst[i] = strconv.Itoa(seed)
			}
			s.publish(telemetry.ParamSpO2, []string{strconv.Itoa(seed)})
			s.publish(telemetry.ParamPPG, burst)
		}
	}
}

// nextRandomWalk takes one bounded step from old within [lo, hi].
func nextRandomWalk(old, lo, hi, delta int) int {
	ub := old + delta
	if ub > hi {
		ub = hi
	}
	lb := old - delta
	if lb < lo {
		lb = lo
	}
	if ub <= lb {
		return lb
	}
	return lb + rand.Intn(ub-lb+1)
}

func randInt(lo, hi int) int {
	return lo + rand.Intn(hi-lo+1)
}

func randChoice(options ...string) string {
	return options[rand.Intn(len(options))]
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
