package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/benmeehan/kiosk-agent/pkg/file"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

const connectTimeout = 10 * time.Second

// MQTTClient defines the interface for an MQTT client.
type MQTTClient interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
	Disconnect(quiesce uint)
}

// MqttService provides methods for MQTT operations.
type MqttService struct {
	client     MQTTClient
	fileClient file.FileOperations
	logger     zerolog.Logger
}

// NewMqttService creates a new MqttService instance.
func NewMqttService(fileClient file.FileOperations, logger zerolog.Logger) *MqttService {
	return &MqttService{
		fileClient: fileClient,
		logger:     logger,
	}
}

// Initialize sets up the MQTT client and starts the connection. TLS is used
// when caCertPath is set; the touchscreen broker usually runs on localhost
// over plain TCP.
func (s *MqttService) Initialize(broker, clientID, caCertPath string) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		s.logger.Info().Str("broker", broker).Msg("Connected to MQTT broker")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.logger.Warn().Err(err).Str("broker", broker).Msg("MQTT connection lost")
	})

	if caCertPath != "" {
		tlsConfig, err := s.tlsConfig(caCertPath)
		if err != nil {
			return err
		}
		opts.SetTLSConfig(tlsConfig)
	}

	s.client = mqtt.NewClient(opts)

	token := s.Connect()
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}

	return nil
}

func (s *MqttService) tlsConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := s.fileClient.ReadFileRaw(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to append CA certificate")
	}
	return &tls.Config{RootCAs: caCertPool, MinVersion: tls.VersionTLS12}, nil
}

// Connect connects to the MQTT broker.
func (s *MqttService) Connect() mqtt.Token {
	return s.client.Connect()
}

// Publish sends a message to the specified topic.
func (s *MqttService) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	return s.client.Publish(topic, qos, retained, payload)
}

// Subscribe subscribes to the specified topic with a message handler.
func (s *MqttService) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	return s.client.Subscribe(topic, qos, callback)
}

// Unsubscribe unsubscribes from the specified topics.
func (s *MqttService) Unsubscribe(topics ...string) mqtt.Token {
	return s.client.Unsubscribe(topics...)
}

// Disconnect gracefully disconnects the MQTT client.
func (s *MqttService) Disconnect(quiesce uint) {
	s.client.Disconnect(quiesce)
}
