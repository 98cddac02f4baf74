package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/scrypt"
)

const (
	// scrypt parameters for the faucet funding keystore. The keystore is
	// unlocked once at service start on a server, so N=2^15 (~32MB) keeps
	// startup fast while staying expensive enough for an offline attacker.
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12

	fileExt = ".keystore"
)

// keystoreFile is the on-disk structure.
type keystoreFile struct {
	PublicKey  string `json:"publicKey"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	CipherText string `json:"cipherText"`
	CreatedAt  string `json:"createdAt"`
}

// ErrKeystoreExists is returned when the target file already holds a key.
var ErrKeystoreExists = errors.New("keystore file is not empty")

// WriteKeystore encrypts the 64-byte funding private key and writes it to
// path. passphrase must be []byte; caller should zero both after use.
func WriteKeystore(path, publicKey string, privateKey, passphrase []byte) error {
	if !strings.HasSuffix(path, fileExt) {
		return fmt.Errorf("file must have %s extension", fileExt)
	}
	if len(privateKey) != 64 {
		return fmt.Errorf("invalid private key length: expected 64 bytes")
	}

	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return ErrKeystoreExists
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	key, err := scrypt.Key(passphrase, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("failed to create GCM: %w", err)
	}

	ciphertext := aesGCM.Seal(nil, nonce, privateKey, nil)

	data, err := json.MarshalIndent(keystoreFile{
		PublicKey:  publicKey,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		CipherText: base64.StdEncoding.EncodeToString(ciphertext),
		CreatedAt:  time.Now().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal keystore: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write keystore: %w", err)
	}
	return nil
}

// ReadKeystore decrypts the funding private key from path. The returned
// slice is the raw 64-byte key; caller must zero it after use.
func ReadKeystore(path string, passphrase []byte) (publicKey string, privateKey []byte, err error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, errors.New("keystore file does not exist")
		}
		return "", nil, fmt.Errorf("failed to stat keystore: %w", err)
	}
	if info.Size() == 0 {
		return "", nil, errors.New("keystore file is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read keystore: %w", err)
	}

	var ks keystoreFile
	if err := json.Unmarshal(data, &ks); err != nil {
		return "", nil, fmt.Errorf("failed to unmarshal keystore: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(ks.Salt)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	nonce, err := base64.StdEncoding.DecodeString(ks.Nonce)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(ks.CipherText)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	key, err := scrypt.Key(passphrase, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", nil, errors.New("invalid passphrase")
	}

	if len(plaintext) != 64 {
		clear(plaintext)
		return "", nil, errors.New("keystore holds an invalid key")
	}
	return ks.PublicKey, plaintext, nil
}
