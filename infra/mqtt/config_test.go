package mqtt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateCert writes a self-signed certificate, its key and a CA bundle.
func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "test"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	dir := t.TempDir()
	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")
	caFile = filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(certFile, certPEM, 0o600))
	require.NoError(t, os.WriteFile(keyFile, keyPEM, 0o600))
	require.NoError(t, os.WriteFile(caFile, certPEM, 0o600))
	return
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	cfg := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}
	tlsCfg, err := cfg.LoadTLSConfig()
	require.NoError(t, err)
	assert.Len(t, tlsCfg.Certificates, 1)
	assert.NotNil(t, tlsCfg.RootCAs)

	caOnly, err := Config{CABundle: ca}.LoadTLSConfig()
	require.NoError(t, err)
	assert.Empty(t, caOnly.Certificates)

	_, err = Config{CABundle: filepath.Join(t.TempDir(), "missing.pem")}.LoadTLSConfig()
	assert.ErrorContains(t, err, "read ca")
}

func TestConfigDefaultsAndTopics(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, "energyflow", c.BaseTopic)
	assert.Contains(t, c.ClientID, "energyflow-")
	assert.Equal(t, 3, c.Retries())
	assert.Equal(t, 100*time.Millisecond, c.Backoff())
	assert.Equal(t, "energyflow/status", c.StatusTopic())
	assert.Equal(t, "energyflow/flow", c.FlowTopic())
	assert.Equal(t, "energyflow/source/heating_summary", c.SourceTopic("heating_summary"))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())
	assert.Error(t, Config{Enabled: true}.Validate())

	none, negative := 0, -1
	c := Config{Enabled: true, Broker: "tcp://localhost:1883", MaxRetries: &none}
	c.SetDefaults()
	assert.Equal(t, 0, c.Retries())
	assert.NoError(t, c.Validate())
	c.MaxRetries = &negative
	assert.Error(t, c.Validate())
	assert.Error(t, Config{Enabled: true, Broker: "tcp://b:1883", QoS: 3}.Validate())
	assert.Error(t, Config{Enabled: true, Broker: "tcp://b:1883", BaseTopic: "home/#"}.Validate())
	assert.NoError(t, Config{Enabled: true, Broker: "tcp://b:1883", BaseTopic: "home"}.Validate())
}

func TestNewClientOptionsAuth(t *testing.T) {
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", Username: "u", Password: "p"}
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, "u", opts.Username)
	assert.Equal(t, "p", opts.Password)
	assert.Equal(t, "id", opts.ClientID)
}
