package internal

import (
	"encoding/json"
	"errors"
	"log"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/haatos/simple-qa/internal/util"
)

var (
	Config   *Configuration
	configMu sync.RWMutex
)

// SecondsDuration is a time.Duration that is written to config.json as
// a number of seconds.
type SecondsDuration time.Duration

func NewSecondsDuration(seconds int64) SecondsDuration {
	return SecondsDuration(time.Duration(seconds) * time.Second)
}

func (sd SecondsDuration) MarshalJSON() ([]byte, error) {
	seconds := float64(time.Duration(sd)) / float64(time.Second)
	return json.Marshal(seconds)
}

func (sd *SecondsDuration) UnmarshalJSON(data []byte) error {
	var seconds float64
	if err := json.Unmarshal(data, &seconds); err != nil {
		return err
	}
	*sd = SecondsDuration(seconds * float64(time.Second))
	return nil
}

func (sd SecondsDuration) Duration() time.Duration {
	return time.Duration(sd)
}

// DelayRange is an inclusive range a simulated step delay is drawn from.
type DelayRange struct {
	Min SecondsDuration `json:"min"`
	Max SecondsDuration `json:"max"`
}

func (dr DelayRange) Draw() time.Duration {
	lo, hi := dr.Min.Duration(), dr.Max.Duration()
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

type StepDelays struct {
	GitClone          DelayRange `json:"git_clone"`
	InstallDeps       DelayRange `json:"install_deps"`
	TestExecution     DelayRange `json:"test_execution"`
	ProcessingResults DelayRange `json:"processing_results"`
}

type Configuration struct {
	QueueSize             int64           `json:"queue_size"`
	Workers               int64           `json:"workers"`
	DemoPassProbability   float64         `json:"demo_pass_probability"`
	WebhookTimeout        SecondsDuration `json:"webhook_timeout_seconds"`
	DeliveryRetentionDays int64           `json:"delivery_retention_days"`
	StepDelays            StepDelays      `json:"step_delays"`
}

func DefaultConfiguration() *Configuration {
	return &Configuration{
		QueueSize:             50,
		Workers:               4,
		DemoPassProbability:   2.0 / 3.0,
		WebhookTimeout:        NewSecondsDuration(10),
		DeliveryRetentionDays: 30,
		StepDelays: StepDelays{
			GitClone:          DelayRange{NewSecondsDuration(5), NewSecondsDuration(10)},
			InstallDeps:       DelayRange{NewSecondsDuration(10), NewSecondsDuration(20)},
			TestExecution:     DelayRange{NewSecondsDuration(30), NewSecondsDuration(60)},
			ProcessingResults: DelayRange{NewSecondsDuration(5), NewSecondsDuration(10)},
		},
	}
}

func (c *Configuration) Validate() error {
	if c.QueueSize < 1 {
		return errors.New("queue_size must be at least 1")
	}
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if c.DemoPassProbability < 0 || c.DemoPassProbability > 1 {
		return errors.New("demo_pass_probability must be between 0 and 1")
	}
	if c.WebhookTimeout <= 0 {
		return errors.New("webhook_timeout_seconds must be positive")
	}
	return nil
}

// InitializeConfiguration reads path into Config, writing the defaults
// to path when it does not exist yet.
func InitializeConfiguration(path string) {
	config := DefaultConfiguration()

	configFileExists, _ := util.PathExists(path)
	if !configFileExists {
		if err := writeConfiguration(path, config); err != nil {
			log.Fatal(err)
		}
	} else {
		configBytes, err := os.ReadFile(path)
		if err != nil {
			log.Fatal(err)
		}
		if err := json.Unmarshal(configBytes, config); err != nil {
			log.Fatal(err)
		}
		if err := config.Validate(); err != nil {
			log.Fatal("invalid configuration: ", err)
		}
	}

	SetConfiguration(config)
}

func UpdateConfiguration(path string, config *Configuration) error {
	if err := config.Validate(); err != nil {
		return err
	}
	if err := writeConfiguration(path, config); err != nil {
		return err
	}
	SetConfiguration(config)
	return nil
}

func SetConfiguration(config *Configuration) {
	configMu.Lock()
	defer configMu.Unlock()
	Config = config
}

// CurrentConfiguration returns a copy of the active configuration, or the
// defaults when none has been initialized.
func CurrentConfiguration() Configuration {
	configMu.RLock()
	defer configMu.RUnlock()
	if Config == nil {
		return *DefaultConfiguration()
	}
	return *Config
}

func writeConfiguration(path string, config *Configuration) error {
	b, err := json.MarshalIndent(config, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
