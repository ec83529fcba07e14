package link

import (
	"bytes"
	"compress/flate"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"

	"goldlink/internal/domain"
)

const (
	ivLen  = aes.BlockSize
	tagLen = sha256.Size

	// maxInflate caps the decompressed payload; anything bigger than this is
	// not a game state, it is an inflation bomb.
	maxInflate = 1 << 20
)

// Codec turns a GameState into a URL-embeddable token and back.
//
// Encode: JSON -> DEFLATE -> AES-256-CTR -> HMAC-SHA256 tag -> base64url.
// Compression runs on the plaintext because ciphertext has no redundancy
// left to exploit. The encryption obfuscates casual inspection of the URL
// by third parties; it is not confidentiality between the two players, who
// both hold the full state anyway. The tag is what actually protects the
// token: it detects truncation and tampering before anything downstream
// runs.
type Codec struct {
	encKey []byte
	macKey []byte
}

// NewCodec derives the encryption and integrity keys from the one
// pre-shared application secret.
func NewCodec(secret string) *Codec {
	encKey := sha256.Sum256([]byte(secret + ":enc"))
	macKey := sha256.Sum256([]byte(secret + ":mac"))
	return &Codec{encKey: encKey[:], macKey: macKey[:]}
}

// Encode produces the transport token: base64url(IV || ciphertext || tag).
// The output is legal in a URL query value without further escaping.
func (c *Codec) Encode(st *domain.GameState) (string, error) {
	plain, err := json.Marshal(st)
	if err != nil {
		return "", err
	}

	var compressed bytes.Buffer
	zw, err := flate.NewWriter(&compressed, flate.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := zw.Write(plain); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}

	block, err := aes.NewCipher(c.encKey)
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivLen)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	ciphertext := make([]byte, compressed.Len())
	cipher.NewCTR(block, iv).XORKeyStream(ciphertext, compressed.Bytes())

	mac := hmac.New(sha256.New, c.macKey)
	mac.Write(iv)
	mac.Write(ciphertext)
	tag := mac.Sum(nil)

	blob := make([]byte, 0, ivLen+len(ciphertext)+tagLen)
	blob = append(blob, iv...)
	blob = append(blob, ciphertext...)
	blob = append(blob, tag...)

	token := base64.RawURLEncoding.EncodeToString(blob)

	TokensEncoded.Inc()
	TokenSize.Observe(float64(len(token)))

	return token, nil
}

// Decode is the exact inverse with a validation gate after every stage.
// The integrity tag is verified before anything else is trusted; a
// mismatch behaves identically to "no valid game state present".
func (c *Codec) Decode(token string) (*domain.GameState, error) {
	blob, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, decodeFail(StageEncoding, err)
	}
	if len(blob) <= ivLen+tagLen {
		return nil, decodeFail(StageEncoding, errors.New("token too short"))
	}

	iv := blob[:ivLen]
	ciphertext := blob[ivLen : len(blob)-tagLen]
	tag := blob[len(blob)-tagLen:]

	mac := hmac.New(sha256.New, c.macKey)
	mac.Write(iv)
	mac.Write(ciphertext)
	if !hmac.Equal(tag, mac.Sum(nil)) {
		return nil, decodeFail(StageIntegrity, errors.New("integrity tag mismatch"))
	}

	block, err := aes.NewCipher(c.encKey)
	if err != nil {
		return nil, decodeFail(StageDecrypt, err)
	}
	compressed := make([]byte, len(ciphertext))
	cipher.NewCTR(block, iv).XORKeyStream(compressed, ciphertext)

	zr := flate.NewReader(bytes.NewReader(compressed))
	plain, err := io.ReadAll(io.LimitReader(zr, maxInflate+1))
	if err != nil {
		return nil, decodeFail(StageDecompress, err)
	}
	_ = zr.Close()
	if len(plain) > maxInflate {
		return nil, decodeFail(StageDecompress, errors.New("decompressed payload too large"))
	}

	var st domain.GameState
	if err := json.Unmarshal(plain, &st); err != nil {
		return nil, decodeFail(StageParse, err)
	}

	if err := st.Validate(); err != nil {
		return nil, decodeFail(StageSchema, err)
	}

	return &st, nil
}
