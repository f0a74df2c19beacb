package testutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"sync"
	"testing"

	"github.com/SwiftFiat/SwiftFiat-Queue/services/security"
)

const Secret = "test-shared-secret"

type keyMaterial struct {
	keys   security.Keys
	client *ecdsa.PrivateKey
}

var (
	keysOnce sync.Once
	material keyMaterial
	keysErr  error
)

// Keys returns PEM key material for a Protocol plus the client's private ECDSA
// key so tests can produce authorizations the way the mobile app would.
// Generated once per test binary.
func Keys(t testing.TB) (security.Keys, *ecdsa.PrivateKey) {
	t.Helper()
	keysOnce.Do(func() {
		rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			keysErr = err
			return
		}
		ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			keysErr = err
			return
		}
		pubDER, err := x509.MarshalPKIXPublicKey(&rsaKey.PublicKey)
		if err != nil {
			keysErr = err
			return
		}
		ecDER, err := x509.MarshalPKIXPublicKey(&ecKey.PublicKey)
		if err != nil {
			keysErr = err
			return
		}
		material = keyMaterial{
			keys: security.Keys{
				Secret:             Secret,
				PrivateKeyPEM:      string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(rsaKey)})),
				PublicKeyPEM:       string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})),
				ClientPublicKeyPEM: string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: ecDER})),
			},
			client: ecKey,
		}
	})
	if keysErr != nil {
		t.Fatalf("generate keys: %v", keysErr)
	}
	return material.keys, material.client
}

func Protocol(t testing.TB) *security.Protocol {
	t.Helper()
	keys, _ := Keys(t)
	p, err := security.NewProtocol(keys)
	if err != nil {
		t.Fatalf("NewProtocol() error = %v", err)
	}
	return p
}

// SignECC signs message as a client would, hex encoded.
func SignECC(t testing.TB, message string) string {
	t.Helper()
	_, client := Keys(t)
	sum := sha256.Sum256([]byte(message))
	sig, err := ecdsa.SignASN1(rand.Reader, client, sum[:])
	if err != nil {
		t.Fatalf("SignASN1() error = %v", err)
	}
	return hex.EncodeToString(sig)
}
