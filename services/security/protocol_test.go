package security_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/SwiftFiat/SwiftFiat-Queue/internal/testutil"
	"github.com/SwiftFiat/SwiftFiat-Queue/models"
	"github.com/SwiftFiat/SwiftFiat-Queue/services/security"
	"github.com/shopspring/decimal"
)

func TestProtocol_RSA_GivenUntamperedMessage_ThenVerifies(t *testing.T) {
	p := testutil.Protocol(t)
	msg := p.TransferMessage("$bob", "$ana", decimal.NewFromInt(40))

	sig, err := p.SignRSA(msg)
	if err != nil {
		t.Fatalf("SignRSA() error = %v", err)
	}
	if err := p.VerifyRSA(msg, sig); err != nil {
		t.Errorf("VerifyRSA() error = %v", err)
	}
}

func TestProtocol_RSA_GivenTamperedInput_ThenSignatureInvalid(t *testing.T) {
	p := testutil.Protocol(t)
	msg := p.RequestMessage("txn-1", decimal.NewFromInt(40))
	sig, _ := p.SignRSA(msg)

	tests := []struct {
		name string
		msg  string
		sig  string
	}{
		{"amount changed", p.RequestMessage("txn-1", decimal.NewFromInt(41)), sig},
		{"transaction changed", p.RequestMessage("txn-2", decimal.NewFromInt(40)), sig},
		{"garbage signature", msg, "not-base64!"},
		{"empty signature", msg, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.VerifyRSA(tt.msg, tt.sig)
			if !errors.Is(err, models.ErrSignatureInvalid) {
				t.Errorf("VerifyRSA() error = %v, want ErrSignatureInvalid", err)
			}
		})
	}
}

func TestProtocol_ECC_VerifiesClientSignatures(t *testing.T) {
	p := testutil.Protocol(t)
	msg := p.TransferMessage("$bob", "$ana", decimal.RequireFromString("40.5"))
	sig := testutil.SignECC(t, msg)

	if err := p.VerifyECC(msg, sig); err != nil {
		t.Fatalf("VerifyECC() error = %v", err)
	}

	forged := p.TransferMessage("$mallory", "$ana", decimal.RequireFromString("40.5"))
	if err := p.VerifyECC(forged, sig); !errors.Is(err, models.ErrSignatureInvalid) {
		t.Errorf("VerifyECC() forged receiver error = %v", err)
	}

	// an RSA signature is not accepted where a client authorization is expected
	rsaSig, _ := p.SignRSA(msg)
	if err := p.VerifyECC(msg, rsaSig); !errors.Is(err, models.ErrSignatureInvalid) {
		t.Errorf("VerifyECC() with rsa signature error = %v", err)
	}
}

func TestProtocol_QueueJobMessage_BindsEveryField(t *testing.T) {
	p := testutil.Protocol(t)
	amount := decimal.NewFromInt(100)
	base := p.QueueJobMessage("everyMonday", "weekly", amount, "weekly@everyMonday@abc")

	variants := []string{
		p.QueueJobMessage("everyTuesday", "weekly", amount, "weekly@everyMonday@abc"),
		p.QueueJobMessage("everyMonday", "monthly", amount, "weekly@everyMonday@abc"),
		p.QueueJobMessage("everyMonday", "weekly", decimal.NewFromInt(101), "weekly@everyMonday@abc"),
		p.QueueJobMessage("everyMonday", "weekly", amount, "weekly@everyMonday@abd"),
	}
	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d produced the same digest", i)
		}
	}
	if len(base) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(base))
	}
}

func TestProtocol_Messages_EmbedSecret(t *testing.T) {
	p := testutil.Protocol(t)
	for _, m := range []string{
		p.TransferMessage("a", "b", decimal.NewFromInt(1)),
		p.RequestMessage("t", decimal.NewFromInt(1)),
		p.BankingMessage(1, 2, decimal.NewFromInt(1)),
	} {
		if !strings.HasSuffix(m, testutil.Secret) {
			t.Errorf("message %q does not end with the shared secret", m)
		}
	}
	if got := p.BankingMessage(7, 9, decimal.RequireFromString("12.50")); got != "7&9@12.5@"+testutil.Secret {
		t.Errorf("BankingMessage() = %q", got)
	}
}

func TestProtocol_EncryptDecrypt(t *testing.T) {
	p := testutil.Protocol(t)
	in := map[string]string{"transactionId": "txn-1"}

	ct, err := p.EncryptJSON(in)
	if err != nil {
		t.Fatalf("EncryptJSON() error = %v", err)
	}
	if strings.Contains(ct, "txn-1") {
		t.Fatal("cipher text leaks plaintext")
	}

	var out map[string]string
	if err := p.DecryptJSON(ct, &out); err != nil {
		t.Fatalf("DecryptJSON() error = %v", err)
	}
	if out["transactionId"] != "txn-1" {
		t.Errorf("DecryptJSON() = %v", out)
	}

	ct2, _ := p.EncryptJSON(in)
	if ct == ct2 {
		t.Error("two encryptions produced identical cipher text")
	}
}

func TestProtocol_Decrypt_GivenTamperedCipherText_ThenFails(t *testing.T) {
	p := testutil.Protocol(t)
	ct, _ := p.Encrypt([]byte(`{"a":1}`))

	b := []byte(ct)
	// flip a character inside the base64 body, keeping it decodable
	if b[20] == 'A' {
		b[20] = 'B'
	} else {
		b[20] = 'A'
	}
	if _, err := p.Decrypt(string(b)); models.KindOf(err) != models.KindSignatureInvalid {
		t.Errorf("Decrypt(tampered) error = %v", err)
	}
	if _, err := p.Decrypt("%%%"); models.KindOf(err) != models.KindValidation {
		t.Errorf("Decrypt(garbage) error = %v", err)
	}
}

func TestNewProtocol_RejectsBadKeys(t *testing.T) {
	keys, _ := testutil.Keys(t)

	bad := keys
	bad.PublicKeyPEM = keys.ClientPublicKeyPEM
	if _, err := security.NewProtocol(bad); err == nil {
		t.Error("NewProtocol() accepted an ECDSA key as RSA public key")
	}

	bad = keys
	bad.Secret = ""
	if _, err := security.NewProtocol(bad); err == nil {
		t.Error("NewProtocol() accepted an empty secret")
	}
}

func TestCache_InsertGet(t *testing.T) {
	c := security.NewCache(time.Minute, time.Minute)
	c.Insert("k", 42)
	v, err := c.Get("k")
	if err != nil || v.(int) != 42 {
		t.Errorf("Get() = %v, %v", v, err)
	}
	if _, err := c.Get("missing"); err == nil {
		t.Error("Get(missing) error = nil")
	}
	_ = c.Stop()
	if c.Count() != 0 {
		t.Errorf("Count() after Stop = %d", c.Count())
	}
}
