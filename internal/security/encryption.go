package security

import (
	"crypto/aes"
	"crypto/cipher"
	crand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math/big"
	"os"
)

const charset = "qwertyuiopasdfghjklzxcvbnmQWERTYUIOPASDFGHJKLZXCVBNM1234567890-_"

var ErrCipherTextTooShort = errors.New("cipher text shorter than nonce")

// Encrypter seals secrets stored at rest, such as webhook secret tokens.
type Encrypter interface {
	EncryptAES(string) (string, error)
	DecryptAES(string) ([]byte, error)
}

type AESEncrypter struct {
	Key []byte
}

func NewAESEncrypter(key []byte) *AESEncrypter {
	return &AESEncrypter{Key: key}
}

func (e *AESEncrypter) gcm() (cipher.AEAD, error) {
	c, err := aes.NewCipher(e.Key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	return cipher.NewGCM(c)
}

// EncryptAES returns the hex encoded nonce and cipher text of text. An
// empty text stays empty so unsigned webhooks remain recognizable.
func (e *AESEncrypter) EncryptAES(text string) (string, error) {
	if text == "" {
		return "", nil
	}
	gcm, err := e.gcm()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := crand.Read(nonce); err != nil {
		return "", err
	}
	out := gcm.Seal(nonce, nonce, []byte(text), nil)
	return hex.EncodeToString(out), nil
}

func (e *AESEncrypter) DecryptAES(encrypted string) ([]byte, error) {
	if encrypted == "" {
		return nil, nil
	}
	cipherText, err := hex.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	gcm, err := e.gcm()
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(cipherText) < nonceSize {
		return nil, ErrCipherTextTooShort
	}
	nonce, cipherText := cipherText[:nonceSize], cipherText[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return nil, fmt.Errorf("open gcm: %w", err)
	}
	return plaintext, nil
}

// LoadSecretKey returns the 32 byte key in SIMPLEQA_SECRET_KEY, generating
// and appending one to dotenvPath when the variable is not set.
func LoadSecretKey(dotenvPath string) []byte {
	if key, ok := os.LookupEnv("SIMPLEQA_SECRET_KEY"); ok && len(key) == 32 {
		return []byte(key)
	}
	key := GenerateRandomKey(32)
	writeToDotenv(dotenvPath, "SIMPLEQA_SECRET_KEY", key)
	os.Setenv("SIMPLEQA_SECRET_KEY", key)
	return []byte(key)
}

func writeToDotenv(path, name, value string) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	if _, err := f.Write([]byte(name + "=" + value + "\n")); err != nil {
		log.Fatal(err)
	}
}

func GenerateRandomKey(length int) string {
	b := make([]byte, length)
	limit := big.NewInt(int64(len(charset)))
	for i := range b {
		n, err := crand.Int(crand.Reader, limit)
		if err != nil {
			log.Fatal(err)
		}
		b[i] = charset[n.Int64()]
	}
	return string(b)
}
