package bitget

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"os"
	"strconv"
	"time"
)

// Credentials hold the Bitget API key set.
type Credentials struct {
	AccessKey  string
	SecretKey  string
	Passphrase string
}

// CredentialsFromEnv reads the standard Bitget environment variables.
func CredentialsFromEnv() Credentials {
	return Credentials{
		AccessKey:  os.Getenv("BITGET_API_ACCESS_KEY"),
		SecretKey:  os.Getenv("BITGET_API_SECRET_KEY"),
		Passphrase: os.Getenv("BITGET_API_PASSPHRASE"),
	}
}

// Complete reports whether all three parts of the key set are present.
func (c Credentials) Complete() bool {
	return c.AccessKey != "" && c.SecretKey != "" && c.Passphrase != ""
}

// sign computes the Bitget request signature: base64 of the HMAC-SHA256
// over timestamp + METHOD + requestPath + body, keyed by the secret.
// requestPath must include the query string for GET requests.
func sign(secret, timestamp, method, requestPath, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + method + requestPath + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func timestampMillis() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}
