package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Decoder modes selectable with [General] Mode.
const (
	MODE_CHU         = "chu"
	MODE_DSTAR       = "dstar"
	MODE_VARICODE_RX = "varicode-rx"
	MODE_VARICODE_TX = "varicode-tx"
)

// Config represents the digimodes configuration
type Config struct {
	filename string

	// General section
	mode         string
	input        string
	inputFormat  string
	output       string
	outputFormat string
	bufferSize   uint32

	// CHU section
	chuSampleRate uint32
	chuBaudRate   uint32

	// D-Star section
	dstarAudioFile       string
	dstarGolayCorrection bool

	// Log section
	logLevel           string
	logFormat          string
	logTimestampFormat string

	// Database section
	databaseEnabled bool
	databasePath    string
	databaseDebug   bool

	// MQTT section
	mqttEnabled            bool
	mqttBroker             string
	mqttClientID           string
	mqttUsername           string
	mqttPassword           string
	mqttTopicPrefix        string
	mqttQoS                uint8
	mqttRetain             bool
	mqttPublishSuperframes bool

	// Prometheus section
	prometheusEnabled bool
	prometheusListen  string
}

// NewConfig creates a new configuration instance
func NewConfig(filename string) *Config {
	return &Config{
		filename: filename,

		// Empty formats are resolved per mode by the caller.
		mode:   MODE_DSTAR,
		input:  "-",
		output: "-",

		chuSampleRate: 4800,
		chuBaudRate:   300,

		dstarAudioFile: "dstar-audio.dst",

		logLevel:           "info",
		logFormat:          "text",
		logTimestampFormat: "%Y-%m-%d %H:%M:%S",

		databasePath: "data/digimodes.db",

		mqttBroker:      "tcp://localhost:1883",
		mqttTopicPrefix: "digimodes",

		prometheusListen: ":2112",
	}
}

// Load loads configuration from the specified file
func (c *Config) Load() error {
	file, err := os.Open(c.filename)
	if err != nil {
		return fmt.Errorf("failed to open config file %s: %w", c.filename, err)
	}
	defer file.Close()

	return c.parseINI(file)
}

// LoadFromString loads configuration from a string (useful for testing)
func (c *Config) LoadFromString(data string) error {
	return c.parseINIString(data)
}

// Set applies a single Key=Value as if it appeared under [section] in the
// file. Command line flags use it to override loaded values.
func (c *Config) Set(section, key, value string) {
	c.apply(section, key, strings.TrimSpace(value))
}

// Validate checks the values that the decoders cannot run without.
func (c *Config) Validate() error {
	switch c.mode {
	case MODE_CHU, MODE_DSTAR, MODE_VARICODE_RX, MODE_VARICODE_TX:
	default:
		return fmt.Errorf("unknown mode %q", c.mode)
	}
	if c.chuSampleRate == 0 || c.chuBaudRate == 0 {
		return fmt.Errorf("CHU sample rate and baud rate must be positive")
	}
	if c.chuSampleRate < c.chuBaudRate {
		return fmt.Errorf("CHU sample rate %d is below baud rate %d", c.chuSampleRate, c.chuBaudRate)
	}
	if c.mqttQoS > 2 {
		return fmt.Errorf("MQTT QoS %d out of range", c.mqttQoS)
	}
	if c.mqttEnabled && c.mqttBroker == "" {
		return fmt.Errorf("MQTT enabled without a broker")
	}
	return nil
}

func (c *Config) parseINI(file *os.File) error {
	scanner := bufio.NewScanner(file)
	return c.parseINIScanner(scanner)
}

func (c *Config) parseINIString(data string) error {
	scanner := bufio.NewScanner(strings.NewReader(data))
	return c.parseINIScanner(scanner)
}

func (c *Config) parseINIScanner(scanner *bufio.Scanner) error {
	var currentSection string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		if line[0] == '[' && line[len(line)-1] == ']' {
			currentSection = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		c.apply(currentSection, strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
	}

	return scanner.Err()
}

func (c *Config) apply(section, key, value string) {
	switch section {
	case "General":
		c.parseGeneralSection(key, value)
	case "CHU":
		c.parseCHUSection(key, value)
	case "D-Star":
		c.parseDStarSection(key, value)
	case "Log":
		c.parseLogSection(key, value)
	case "Database":
		c.parseDatabaseSection(key, value)
	case "MQTT":
		c.parseMQTTSection(key, value)
	case "Prometheus":
		c.parsePrometheusSection(key, value)
	}
}

func (c *Config) parseGeneralSection(key, value string) {
	switch key {
	case "Mode":
		c.mode = strings.ToLower(value)
	case "Input":
		c.input = value
	case "InputFormat":
		c.inputFormat = strings.ToLower(value)
	case "Output":
		c.output = value
	case "OutputFormat":
		c.outputFormat = strings.ToLower(value)
	case "BufferSize":
		if v, err := strconv.ParseUint(value, 10, 32); err == nil {
			c.bufferSize = uint32(v)
		}
	}
}

func (c *Config) parseCHUSection(key, value string) {
	switch key {
	case "SampleRate":
		if v, err := strconv.ParseUint(value, 10, 32); err == nil {
			c.chuSampleRate = uint32(v)
		}
	case "BaudRate":
		if v, err := strconv.ParseUint(value, 10, 32); err == nil {
			c.chuBaudRate = uint32(v)
		}
	}
}

func (c *Config) parseDStarSection(key, value string) {
	switch key {
	case "AudioFile":
		c.dstarAudioFile = value
	case "GolayCorrection":
		c.dstarGolayCorrection = c.parseBool(value)
	}
}

func (c *Config) parseLogSection(key, value string) {
	switch key {
	case "Level":
		c.logLevel = strings.ToLower(value)
	case "Format":
		c.logFormat = strings.ToLower(value)
	case "TimestampFormat":
		c.logTimestampFormat = value
	}
}

func (c *Config) parseDatabaseSection(key, value string) {
	switch key {
	case "Enable", "Enabled":
		c.databaseEnabled = c.parseBool(value)
	case "Path":
		c.databasePath = value
	case "Debug":
		c.databaseDebug = c.parseBool(value)
	}
}

func (c *Config) parseMQTTSection(key, value string) {
	switch key {
	case "Enable", "Enabled":
		c.mqttEnabled = c.parseBool(value)
	case "Broker":
		c.mqttBroker = value
	case "ClientID":
		c.mqttClientID = value
	case "Username":
		c.mqttUsername = value
	case "Password":
		c.mqttPassword = value
	case "TopicPrefix":
		c.mqttTopicPrefix = value
	case "QoS":
		if v, err := strconv.ParseUint(value, 10, 8); err == nil {
			c.mqttQoS = uint8(v)
		}
	case "Retain":
		c.mqttRetain = c.parseBool(value)
	case "PublishSuperframes":
		c.mqttPublishSuperframes = c.parseBool(value)
	}
}

func (c *Config) parsePrometheusSection(key, value string) {
	switch key {
	case "Enable", "Enabled":
		c.prometheusEnabled = c.parseBool(value)
	case "Listen":
		c.prometheusListen = value
	}
}

func (c *Config) parseBool(value string) bool {
	return value == "1" || strings.ToLower(value) == "true" || strings.ToLower(value) == "yes"
}

// Getter methods for General section
func (c *Config) GetMode() string         { return c.mode }
func (c *Config) GetInput() string        { return c.input }
func (c *Config) GetInputFormat() string  { return c.inputFormat }
func (c *Config) GetOutput() string       { return c.output }
func (c *Config) GetOutputFormat() string { return c.outputFormat }
func (c *Config) GetBufferSize() uint32   { return c.bufferSize }

// Getter methods for CHU section
func (c *Config) GetCHUSampleRate() uint32 { return c.chuSampleRate }
func (c *Config) GetCHUBaudRate() uint32   { return c.chuBaudRate }

// GetCHUSamplesPerBit returns how many input samples carry one CHU bit.
func (c *Config) GetCHUSamplesPerBit() int {
	if c.chuBaudRate == 0 {
		return 0
	}
	return int(c.chuSampleRate / c.chuBaudRate)
}

// Getter methods for D-Star section
func (c *Config) GetDStarAudioFile() string     { return c.dstarAudioFile }
func (c *Config) GetDStarGolayCorrection() bool { return c.dstarGolayCorrection }

// Getter methods for Log section
func (c *Config) GetLogLevel() string           { return c.logLevel }
func (c *Config) GetLogFormat() string          { return c.logFormat }
func (c *Config) GetLogTimestampFormat() string { return c.logTimestampFormat }

// Getter methods for Database section
func (c *Config) GetDatabaseEnabled() bool { return c.databaseEnabled }
func (c *Config) GetDatabasePath() string  { return c.databasePath }
func (c *Config) GetDatabaseDebug() bool   { return c.databaseDebug }

// Getter methods for MQTT section
func (c *Config) GetMQTTEnabled() bool            { return c.mqttEnabled }
func (c *Config) GetMQTTBroker() string           { return c.mqttBroker }
func (c *Config) GetMQTTClientID() string         { return c.mqttClientID }
func (c *Config) GetMQTTUsername() string         { return c.mqttUsername }
func (c *Config) GetMQTTPassword() string         { return c.mqttPassword }
func (c *Config) GetMQTTTopicPrefix() string      { return c.mqttTopicPrefix }
func (c *Config) GetMQTTQoS() uint8               { return c.mqttQoS }
func (c *Config) GetMQTTRetain() bool             { return c.mqttRetain }
func (c *Config) GetMQTTPublishSuperframes() bool { return c.mqttPublishSuperframes }

// Getter methods for Prometheus section
func (c *Config) GetPrometheusEnabled() bool  { return c.prometheusEnabled }
func (c *Config) GetPrometheusListen() string { return c.prometheusListen }
