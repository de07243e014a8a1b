package account

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Hasher はパスワードのハッシュ化と照合を差し替え可能にするインターフェースなのだ。
type Hasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// BcryptHasher は bcrypt によるハッシュ化を行うデフォルトの実装なのだ。
// 旧ツールが書いた sha256 ヘックス形式のハッシュも照合だけは通すのだ。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher は BcryptHasher の新しいインスタンスを生成して返すのだ。
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

// Hash はパスワードを bcrypt でハッシュ化するのだ。
func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify はハッシュの形を見て照合方式を選ぶのだ。
// "$2" で始まれば bcrypt、それ以外は旧形式の sha256 ヘックスとして扱うのだ。
func (h *BcryptHasher) Verify(hash, password string) bool {
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	return sha256Verify(hash, password)
}

// SHA256Hasher は旧ツールと互換のソルト無し sha256 ヘックス実装なのだ。
// 新規作成には使わず、移行期間の読み取り互換のためだけに残してあるのだ。
type SHA256Hasher struct{}

// Hash はパスワードの sha256 ヘックス文字列を返すのだ。
func (SHA256Hasher) Hash(password string) (string, error) {
	return sha256Hex(password), nil
}

// Verify は sha256 ヘックス同士を定数時間で比較するのだ。
func (SHA256Hasher) Verify(hash, password string) bool {
	return sha256Verify(hash, password)
}

func sha256Hex(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func sha256Verify(hash, password string) bool {
	return subtle.ConstantTimeCompare([]byte(hash), []byte(sha256Hex(password))) == 1
}
