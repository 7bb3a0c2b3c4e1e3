package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptの入力上限（これを超える部分は切り捨てられる）
const maxPasswordLen = 72

// defaultCost はシード用アカウントのハッシュ化に使うコスト。
const defaultCost = bcrypt.DefaultCost

// HashPassword はパスワードをbcryptでハッシュ化する。
func HashPassword(password string, cost int) (string, error) {
	if len(password) > maxPasswordLen {
		return "", errors.New("password exceeds 72 bytes")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword は平文のパスワードがハッシュと一致するかを返す。
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
