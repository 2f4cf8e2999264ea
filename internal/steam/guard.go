package steam

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// totpChars is the alphabet Steam Guard uses for its 5-character codes.
var totpChars = []byte("23456789BCDFGHJKMNPQRTVWXY")

// totpPeriod is the code rotation interval in seconds.
const totpPeriod = 30

// GenerateTwoFactorCode derives the Steam Guard code for the given unix
// time from the account's base64-encoded shared secret.
func GenerateTwoFactorCode(sharedSecret string, unixTime int64) (string, error) {
	key, err := base64.StdEncoding.DecodeString(sharedSecret)
	if err != nil {
		return "", fmt.Errorf("invalid shared secret: %w", err)
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(unixTime/totpPeriod))

	mac := hmac.New(sha1.New, key)
	mac.Write(buf[:])
	sum := mac.Sum(nil)

	start := sum[len(sum)-1] & 0x0f
	code := binary.BigEndian.Uint32(sum[start:start+4]) & 0x7fffffff

	out := make([]byte, 5)
	for i := range out {
		out[i] = totpChars[code%uint32(len(totpChars))]
		code /= uint32(len(totpChars))
	}

	return string(out), nil
}

// GenerateConfirmationKey computes the HMAC key that authenticates a mobile
// confirmation request. The tag names the operation: "conf" for listing,
// "allow" for accepting, "cancel" for declining.
func GenerateConfirmationKey(identitySecret string, unixTime int64, tag string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(identitySecret)
	if err != nil {
		return "", fmt.Errorf("invalid identity secret: %w", err)
	}

	buf := make([]byte, 8, 8+len(tag))
	binary.BigEndian.PutUint64(buf, uint64(unixTime))
	buf = append(buf, tag...)

	mac := hmac.New(sha1.New, key)
	mac.Write(buf)

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// DeviceID derives the android device identifier Steam expects alongside
// confirmation requests: a SHA1 of the SteamID formatted as a UUID.
func DeviceID(steamID string) string {
	sum := sha1.Sum([]byte(steamID))
	hex := fmt.Sprintf("%x", sum)

	return fmt.Sprintf("android:%s-%s-%s-%s-%s",
		hex[0:8], hex[8:12], hex[12:16], hex[16:20], hex[20:32])
}
