// Package certgen generates the test PKI consumed by mTLS broker scenarios:
// a self-signed CA plus broker, device, and client certificates, written as
// PEM files under a certs/ tree.
//
// The material is for test environments only — validity periods and subjects
// are fixed and keys are written unencrypted.
package certgen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	caKeyBits   = 4096
	leafKeyBits = 2048

	caValidity   = 10 * 365 * 24 * time.Hour
	leafValidity = 365 * 24 * time.Hour
)

// CA is a certificate authority rooted in a directory tree:
//
//	<dir>/ca/ca.crt, ca.key
//	<dir>/broker/, <dir>/devices/, <dir>/clients/
type CA struct {
	dir  string
	key  *rsa.PrivateKey
	cert *x509.Certificate
}

// Generate creates the directory layout and a fresh self-signed CA.
func Generate(dir string) (*CA, error) {
	for _, sub := range []string{"ca", "broker", "devices", "clients"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("certgen: creating %s directory: %w", sub, err)
		}
	}

	key, err := rsa.GenerateKey(rand.Reader, caKeyBits)
	if err != nil {
		return nil, fmt.Errorf("certgen: generating CA key: %w", err)
	}

	serial, err := randomSerial()
	if err != nil {
		return nil, err
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"SmartHome IoT Test CA"},
			CommonName:   "SmartHome Root CA",
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(caValidity),
		IsCA:                  true,
		MaxPathLen:            0,
		MaxPathLenZero:        true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("certgen: creating CA certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("certgen: parsing CA certificate: %w", err)
	}

	ca := &CA{dir: dir, key: key, cert: cert}
	if err := writePEM(ca.CertPath(), "CERTIFICATE", der); err != nil {
		return nil, err
	}
	if err := writeKey(filepath.Join(dir, "ca", "ca.key"), key); err != nil {
		return nil, err
	}
	return ca, nil
}

// Load reads an existing CA from the directory layout created by Generate.
func Load(dir string) (*CA, error) {
	certDER, err := readPEM(filepath.Join(dir, "ca", "ca.crt"), "CERTIFICATE")
	if err != nil {
		return nil, err
	}
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("certgen: parsing CA certificate: %w", err)
	}

	keyDER, err := readPEM(filepath.Join(dir, "ca", "ca.key"), "RSA PRIVATE KEY")
	if err != nil {
		return nil, err
	}
	key, err := x509.ParsePKCS1PrivateKey(keyDER)
	if err != nil {
		return nil, fmt.Errorf("certgen: parsing CA key: %w", err)
	}

	return &CA{dir: dir, key: key, cert: cert}, nil
}

// CertPath returns the path of the CA certificate PEM file.
func (ca *CA) CertPath() string {
	return filepath.Join(ca.dir, "ca", "ca.crt")
}

// BrokerCert issues a server certificate for the broker, valid for the given
// hostnames/addresses (localhost and 127.0.0.1 are always included).
// Returns the written certificate and key paths.
func (ca *CA) BrokerCert(hosts ...string) (string, string, error) {
	dnsNames := []string{"localhost"}
	ips := []net.IP{net.ParseIP("127.0.0.1")}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			ips = append(ips, ip)
		} else if h != "localhost" {
			dnsNames = append(dnsNames, h)
		}
	}

	der, key, err := ca.issue("mqtt-broker", x509.ExtKeyUsageServerAuth, dnsNames, ips)
	if err != nil {
		return "", "", err
	}

	certPath := filepath.Join(ca.dir, "broker", "broker.crt")
	keyPath := filepath.Join(ca.dir, "broker", "broker.key")
	if err := writePEM(certPath, "CERTIFICATE", der); err != nil {
		return "", "", err
	}
	if err := writeKey(keyPath, key); err != nil {
		return "", "", err
	}
	return certPath, keyPath, nil
}

// ClientCert issues a client-auth certificate for a named test client.
func (ca *CA) ClientCert(name string) (string, string, error) {
	return ca.leafFiles("clients", name)
}

// DeviceCert issues a client-auth certificate for a device identity.
func (ca *CA) DeviceCert(deviceID string) (string, string, error) {
	return ca.leafFiles("devices", deviceID)
}

// IssuePEM issues a client-auth certificate and returns the PEM-encoded
// certificate and key without writing files. Used by the mock API's
// certificate-provisioning endpoint.
func (ca *CA) IssuePEM(commonName string) (certPEM, keyPEM []byte, err error) {
	der, key, err := ca.issue(commonName, x509.ExtKeyUsageClientAuth, nil, nil)
	if err != nil {
		return nil, nil, err
	}
	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return certPEM, keyPEM, nil
}

func (ca *CA) leafFiles(subdir, name string) (string, string, error) {
	der, key, err := ca.issue(name, x509.ExtKeyUsageClientAuth, nil, nil)
	if err != nil {
		return "", "", err
	}

	certPath := filepath.Join(ca.dir, subdir, name+".crt")
	keyPath := filepath.Join(ca.dir, subdir, name+".key")
	if err := writePEM(certPath, "CERTIFICATE", der); err != nil {
		return "", "", err
	}
	if err := writeKey(keyPath, key); err != nil {
		return "", "", err
	}
	return certPath, keyPath, nil
}

// issue signs a leaf certificate with the CA.
func (ca *CA) issue(commonName string, eku x509.ExtKeyUsage, dnsNames []string, ips []net.IP) ([]byte, *rsa.PrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, leafKeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("certgen: generating key for %s: %w", commonName, err)
	}

	serial, err := randomSerial()
	if err != nil {
		return nil, nil, err
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"SmartHome IoT Test"},
			CommonName:   commonName,
		},
		NotBefore:   time.Now().Add(-time.Hour),
		NotAfter:    time.Now().Add(leafValidity),
		KeyUsage:    x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage: []x509.ExtKeyUsage{eku},
		DNSNames:    dnsNames,
		IPAddresses: ips,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, ca.cert, &key.PublicKey, ca.key)
	if err != nil {
		return nil, nil, fmt.Errorf("certgen: signing certificate for %s: %w", commonName, err)
	}
	return der, key, nil
}

func randomSerial() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), 128)
	serial, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return nil, fmt.Errorf("certgen: generating serial: %w", err)
	}
	return serial, nil
}

func writePEM(path, blockType string, der []byte) error {
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("certgen: writing %s: %w", path, err)
	}
	return nil
}

func writeKey(path string, key *rsa.PrivateKey) error {
	data := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("certgen: writing %s: %w", path, err)
	}
	return nil
}

func readPEM(path, blockType string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("certgen: reading %s: %w", path, err)
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != blockType {
		return nil, fmt.Errorf("certgen: %s: expected %s PEM block", path, blockType)
	}
	return block.Bytes, nil
}
