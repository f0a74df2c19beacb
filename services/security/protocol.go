package security

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/hkdf"
)

const payloadKeyInfo = "swiftfiat-queue/payload/v1"

type Keys struct {
	Secret             string
	PrivateKeyPEM      string
	PublicKeyPEM       string
	ClientPublicKeyPEM string
}

// Protocol signs, verifies and encrypts everything that crosses the queue.
// Server-issued data is RSA signed; client-issued authorizations are ECDSA.
type Protocol struct {
	secret    string
	aead      cipher.AEAD
	signKey   *rsa.PrivateKey
	verifyKey *rsa.PublicKey
	clientKey *ecdsa.PublicKey
}

func NewProtocol(k Keys) (*Protocol, error) {
	if k.Secret == "" {
		return nil, fmt.Errorf("protocol secret is empty")
	}

	priv, err := ParseRSAPrivateKey(k.PrivateKeyPEM)
	if err != nil {
		return nil, err
	}
	pub, err := ParseRSAPublicKey(k.PublicKeyPEM)
	if err != nil {
		return nil, err
	}
	client, err := ParseECDSAPublicKey(k.ClientPublicKeyPEM)
	if err != nil {
		return nil, err
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(k.Secret), nil, []byte(payloadKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive payload key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Protocol{
		secret:    k.Secret,
		aead:      aead,
		signKey:   priv,
		verifyKey: pub,
		clientKey: client,
	}, nil
}

// Canonical messages. Every one embeds the shared secret.

func (p *Protocol) TransferMessage(receiver, sender string, amount decimal.Decimal) string {
	return fmt.Sprintf("%s&%s@%s@%s", receiver, sender, amount.String(), p.secret)
}

func (p *Protocol) RequestMessage(transactionID string, amount decimal.Decimal) string {
	return fmt.Sprintf("%s&%s@%s", transactionID, amount.String(), p.secret)
}

func (p *Protocol) BankingMessage(accountID, userID int64, amount decimal.Decimal) string {
	return fmt.Sprintf("%d&%d@%s@%s", accountID, userID, amount.String(), p.secret)
}

type queueJobDigest struct {
	JobTime      string `json:"jobTime"`
	JobName      string `json:"jobName"`
	Amount       string `json:"amount"`
	RepeatJobKey string `json:"repeatJobKey"`
	Secret       string `json:"secret"`
}

// QueueJobMessage is the hex SHA-256 of the fields a recurring job must not
// lose integrity on.
func (p *Protocol) QueueJobMessage(jobTime, jobName string, amount decimal.Decimal, repeatJobKey string) string {
	b, _ := json.Marshal(queueJobDigest{
		JobTime:      jobTime,
		JobName:      jobName,
		Amount:       amount.String(),
		RepeatJobKey: repeatJobKey,
		Secret:       p.secret,
	})
	return Hash(string(b))
}

func Hash(message string) string {
	sum := sha256.Sum256([]byte(message))
	return hex.EncodeToString(sum[:])
}

// SignRSA returns a base64 PKCS#1 v1.5 signature over SHA-256(message).
func (p *Protocol) SignRSA(message string) (string, error) {
	sum := sha256.Sum256([]byte(message))
	sig, err := rsa.SignPKCS1v15(rand.Reader, p.signKey, crypto.SHA256, sum[:])
	if err != nil {
		return "", fmt.Errorf("rsa sign: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// VerifyRSA checks a server-issued signature against the public key.
func (p *Protocol) VerifyRSA(message, signature string) error {
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return models.ErrSignatureInvalid
	}
	sum := sha256.Sum256([]byte(message))
	if err := rsa.VerifyPKCS1v15(p.verifyKey, crypto.SHA256, sum[:], sig); err != nil {
		return models.ErrSignatureInvalid
	}
	return nil
}

// VerifyECC checks a client-issued ASN.1 ECDSA signature, hex or base64
// encoded, over SHA-256(message).
func (p *Protocol) VerifyECC(message, signature string) error {
	sig, err := hex.DecodeString(signature)
	if err != nil {
		sig, err = base64.StdEncoding.DecodeString(signature)
		if err != nil {
			return models.ErrSignatureInvalid
		}
	}
	sum := sha256.Sum256([]byte(message))
	if !ecdsa.VerifyASN1(p.clientKey, sum[:], sig) {
		return models.ErrSignatureInvalid
	}
	return nil
}

// Encrypt seals plaintext with AES-256-GCM and returns base64(nonce|ciphertext).
func (p *Protocol) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, p.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := p.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (p *Protocol) Decrypt(ciphertext string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, models.Validation("payload is not valid cipher text")
	}
	n := p.aead.NonceSize()
	if len(raw) < n {
		return nil, models.Validation("payload is too short")
	}
	plain, err := p.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		// a payload that fails authentication was altered or sealed with another key
		return nil, models.ErrSignatureInvalid
	}
	return plain, nil
}

func (p *Protocol) EncryptJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return p.Encrypt(b)
}

func (p *Protocol) DecryptJSON(ciphertext string, v interface{}) error {
	b, err := p.Decrypt(ciphertext)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return models.Validation(fmt.Sprintf("decrypted payload is malformed: %v", err))
	}
	return nil
}
