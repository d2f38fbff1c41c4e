package config

import (
	"os"
	"testing"
)

func TestConfig_LoadFromFile(t *testing.T) {
	testConfig := `[General]
Mode=CHU
Input=udp://:7355
InputFormat=ascii
Output=chu.log
BufferSize=8192

[CHU]
SampleRate=9600
BaudRate=300

[D-Star]
AudioFile=/var/lib/digimodes/audio.dst
GolayCorrection=1

[Log]
Level=debug
Format=yaml
TimestampFormat=%H:%M:%S

[Database]
Enable=1
Path=/var/lib/digimodes/digimodes.db
Debug=0

[MQTT]
Enable=1
Broker=tcp://broker.example.com:1883
ClientID=digimodes-test
Username=user
Password=secret
TopicPrefix=radio/digimodes
QoS=1
Retain=yes
PublishSuperframes=true

[Prometheus]
Enable=1
Listen=127.0.0.1:9100`

	tmpfile, err := os.CreateTemp("", "test_config_*.ini")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(testConfig)); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatalf("Failed to close temp file: %v", err)
	}

	config := NewConfig(tmpfile.Name())
	if err := config.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := config.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	// General section
	if config.GetMode() != MODE_CHU {
		t.Errorf("GetMode() = %q, want %q", config.GetMode(), MODE_CHU)
	}
	if config.GetInput() != "udp://:7355" {
		t.Errorf("GetInput() = %q, want %q", config.GetInput(), "udp://:7355")
	}
	if config.GetInputFormat() != "ascii" {
		t.Errorf("GetInputFormat() = %q, want %q", config.GetInputFormat(), "ascii")
	}
	if config.GetOutput() != "chu.log" {
		t.Errorf("GetOutput() = %q, want %q", config.GetOutput(), "chu.log")
	}
	if config.GetBufferSize() != 8192 {
		t.Errorf("GetBufferSize() = %d, want 8192", config.GetBufferSize())
	}

	// CHU section
	if config.GetCHUSamplesPerBit() != 32 {
		t.Errorf("GetCHUSamplesPerBit() = %d, want 32", config.GetCHUSamplesPerBit())
	}

	// D-Star section
	if config.GetDStarAudioFile() != "/var/lib/digimodes/audio.dst" {
		t.Errorf("GetDStarAudioFile() = %q", config.GetDStarAudioFile())
	}
	if !config.GetDStarGolayCorrection() {
		t.Error("GetDStarGolayCorrection() = false, want true")
	}

	// Log section
	if config.GetLogLevel() != "debug" {
		t.Errorf("GetLogLevel() = %q, want %q", config.GetLogLevel(), "debug")
	}
	if config.GetLogFormat() != "yaml" {
		t.Errorf("GetLogFormat() = %q, want %q", config.GetLogFormat(), "yaml")
	}
	if config.GetLogTimestampFormat() != "%H:%M:%S" {
		t.Errorf("GetLogTimestampFormat() = %q, want %q", config.GetLogTimestampFormat(), "%H:%M:%S")
	}

	// Database section
	if !config.GetDatabaseEnabled() {
		t.Error("GetDatabaseEnabled() = false, want true")
	}
	if config.GetDatabasePath() != "/var/lib/digimodes/digimodes.db" {
		t.Errorf("GetDatabasePath() = %q", config.GetDatabasePath())
	}
	if config.GetDatabaseDebug() {
		t.Error("GetDatabaseDebug() = true, want false")
	}

	// MQTT section
	if !config.GetMQTTEnabled() {
		t.Error("GetMQTTEnabled() = false, want true")
	}
	if config.GetMQTTBroker() != "tcp://broker.example.com:1883" {
		t.Errorf("GetMQTTBroker() = %q", config.GetMQTTBroker())
	}
	if config.GetMQTTClientID() != "digimodes-test" {
		t.Errorf("GetMQTTClientID() = %q", config.GetMQTTClientID())
	}
	if config.GetMQTTUsername() != "user" || config.GetMQTTPassword() != "secret" {
		t.Errorf("credentials = %q/%q", config.GetMQTTUsername(), config.GetMQTTPassword())
	}
	if config.GetMQTTTopicPrefix() != "radio/digimodes" {
		t.Errorf("GetMQTTTopicPrefix() = %q", config.GetMQTTTopicPrefix())
	}
	if config.GetMQTTQoS() != 1 {
		t.Errorf("GetMQTTQoS() = %d, want 1", config.GetMQTTQoS())
	}
	if !config.GetMQTTRetain() {
		t.Error("GetMQTTRetain() = false, want true")
	}
	if !config.GetMQTTPublishSuperframes() {
		t.Error("GetMQTTPublishSuperframes() = false, want true")
	}

	// Prometheus section
	if !config.GetPrometheusEnabled() {
		t.Error("GetPrometheusEnabled() = false, want true")
	}
	if config.GetPrometheusListen() != "127.0.0.1:9100" {
		t.Errorf("GetPrometheusListen() = %q", config.GetPrometheusListen())
	}
}

func TestConfig_DefaultValues(t *testing.T) {
	config := NewConfig("")

	if config.GetMode() != MODE_DSTAR {
		t.Errorf("GetMode() default = %q, want %q", config.GetMode(), MODE_DSTAR)
	}
	if config.GetInput() != "-" || config.GetOutput() != "-" {
		t.Errorf("Input/Output default = %q/%q, want -/-", config.GetInput(), config.GetOutput())
	}
	if config.GetInputFormat() != "" || config.GetOutputFormat() != "" {
		t.Error("formats should default to empty")
	}
	if config.GetCHUSampleRate() != 4800 || config.GetCHUBaudRate() != 300 {
		t.Errorf("CHU default = %d/%d, want 4800/300", config.GetCHUSampleRate(), config.GetCHUBaudRate())
	}
	if config.GetCHUSamplesPerBit() != 16 {
		t.Errorf("GetCHUSamplesPerBit() default = %d, want 16", config.GetCHUSamplesPerBit())
	}
	if config.GetDStarAudioFile() != "dstar-audio.dst" {
		t.Errorf("GetDStarAudioFile() default = %q", config.GetDStarAudioFile())
	}
	if config.GetLogFormat() != "text" {
		t.Errorf("GetLogFormat() default = %q, want text", config.GetLogFormat())
	}
	if config.GetMQTTTopicPrefix() != "digimodes" {
		t.Errorf("GetMQTTTopicPrefix() default = %q", config.GetMQTTTopicPrefix())
	}
	if config.GetDatabaseEnabled() || config.GetMQTTEnabled() || config.GetPrometheusEnabled() {
		t.Error("optional sinks should default to disabled")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

func TestConfig_InvalidFile(t *testing.T) {
	config := NewConfig("/nonexistent/file.ini")
	if err := config.Load(); err == nil {
		t.Error("Load() with nonexistent file should return error")
	}
}

func TestConfig_Set(t *testing.T) {
	config := NewConfig("")
	if err := config.LoadFromString("[General]\nMode=chu\nInput=samples.bin"); err != nil {
		t.Fatalf("LoadFromString() error = %v", err)
	}

	config.Set("General", "Mode", " varicode-rx ")
	config.Set("Log", "TimestampFormat", "%s")
	config.Set("Nowhere", "Mode", "chu")

	if config.GetMode() != MODE_VARICODE_RX {
		t.Errorf("GetMode() = %q, want %q", config.GetMode(), MODE_VARICODE_RX)
	}
	if config.GetInput() != "samples.bin" {
		t.Errorf("GetInput() = %q, want samples.bin", config.GetInput())
	}
	if config.GetLogTimestampFormat() != "%s" {
		t.Errorf("GetLogTimestampFormat() = %q, want %%s", config.GetLogTimestampFormat())
	}
}

func TestConfig_BooleanValues(t *testing.T) {
	tests := []struct {
		name     string
		config   string
		getValue func(*Config) bool
		want     bool
	}{
		{
			name:     "Golay true with 1",
			config:   "[D-Star]\nGolayCorrection=1",
			getValue: func(c *Config) bool { return c.GetDStarGolayCorrection() },
			want:     true,
		},
		{
			name:     "Golay false with 0",
			config:   "[D-Star]\nGolayCorrection=0",
			getValue: func(c *Config) bool { return c.GetDStarGolayCorrection() },
			want:     false,
		},
		{
			name:     "Database Enabled spelling",
			config:   "[Database]\nEnabled=TRUE",
			getValue: func(c *Config) bool { return c.GetDatabaseEnabled() },
			want:     true,
		},
		{
			name:     "MQTT Retain no",
			config:   "[MQTT]\nRetain=no",
			getValue: func(c *Config) bool { return c.GetMQTTRetain() },
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewConfig("")
			err := config.LoadFromString(tt.config)
			if err != nil {
				t.Fatalf("LoadFromString() error = %v", err)
			}

			got := tt.getValue(config)
			if got != tt.want {
				t.Errorf("getValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr bool
	}{
		{name: "defaults", config: "", wantErr: false},
		{name: "every mode", config: "[General]\nMode=varicode-tx", wantErr: false},
		{name: "unknown mode", config: "[General]\nMode=psk31", wantErr: true},
		{name: "zero baud", config: "[CHU]\nBaudRate=0", wantErr: true},
		{name: "rate below baud", config: "[CHU]\nSampleRate=100\nBaudRate=300", wantErr: true},
		{name: "qos range", config: "[MQTT]\nQoS=3", wantErr: true},
		{name: "mqtt without broker", config: "[MQTT]\nEnable=1\nBroker=", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewConfig("")
			if err := config.LoadFromString(tt.config); err != nil {
				t.Fatalf("LoadFromString() error = %v", err)
			}
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_NumericValues(t *testing.T) {
	testConfig := `[General]
BufferSize=not-a-number

[CHU]
SampleRate=2400
BaudRate=-1

[MQTT]
QoS=2`

	config := NewConfig("")
	if err := config.LoadFromString(testConfig); err != nil {
		t.Fatalf("LoadFromString() error = %v", err)
	}

	// Unparseable values keep the default.
	if config.GetBufferSize() != 0 {
		t.Errorf("GetBufferSize() = %d, want 0", config.GetBufferSize())
	}
	if config.GetCHUBaudRate() != 300 {
		t.Errorf("GetCHUBaudRate() = %d, want 300", config.GetCHUBaudRate())
	}
	if config.GetCHUSampleRate() != 2400 {
		t.Errorf("GetCHUSampleRate() = %d, want 2400", config.GetCHUSampleRate())
	}
	if config.GetCHUSamplesPerBit() != 8 {
		t.Errorf("GetCHUSamplesPerBit() = %d, want 8", config.GetCHUSamplesPerBit())
	}
	if config.GetMQTTQoS() != 2 {
		t.Errorf("GetMQTTQoS() = %d, want 2", config.GetMQTTQoS())
	}
}

func TestConfig_CommentedLines(t *testing.T) {
	testConfig := `[MQTT]
Broker=tcp://a:1883
# This is a comment
#TopicPrefix=COMMENTED
TopicPrefix=active
# Another comment
not a key value line`

	config := NewConfig("")
	if err := config.LoadFromString(testConfig); err != nil {
		t.Fatalf("LoadFromString() error = %v", err)
	}

	if config.GetMQTTBroker() != "tcp://a:1883" {
		t.Errorf("GetMQTTBroker() = %q", config.GetMQTTBroker())
	}
	if config.GetMQTTTopicPrefix() != "active" {
		t.Errorf("GetMQTTTopicPrefix() = %q, want %q", config.GetMQTTTopicPrefix(), "active")
	}
}

func TestConfig_MissingSection(t *testing.T) {
	testConfig := `[Nonexistent Section]
Mode=chu`

	config := NewConfig("")
	if err := config.LoadFromString(testConfig); err != nil {
		t.Fatalf("LoadFromString() error = %v", err)
	}

	if config.GetMode() != MODE_DSTAR {
		t.Errorf("GetMode() with missing section = %q, want %q", config.GetMode(), MODE_DSTAR)
	}
}

func BenchmarkConfig_Load(b *testing.B) {
	testConfig := `[General]
Mode=dstar
Input=-

[D-Star]
GolayCorrection=1

[MQTT]
Enable=1
Broker=tcp://localhost:1883`

	tmpfile, err := os.CreateTemp("", "bench_config_*.ini")
	if err != nil {
		b.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(testConfig)); err != nil {
		b.Fatalf("Failed to write temp file: %v", err)
	}
	if err := tmpfile.Close(); err != nil {
		b.Fatalf("Failed to close temp file: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		config := NewConfig(tmpfile.Name())
		config.Load()
	}
}
