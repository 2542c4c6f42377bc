package auth

import "errors"

// User-facing failures. The messages are shown verbatim in the sign-in and
// sign-up forms.
var (
	ErrMissingFields      = errors.New("모든 필드를 입력해주세요.")
	ErrPasswordTooShort   = errors.New("비밀번호는 6자 이상이어야 합니다.")
	ErrPasswordMismatch   = errors.New("비밀번호가 일치하지 않습니다.")
	ErrInvalidEmail       = errors.New("올바른 이메일 주소를 입력해주세요.")
	ErrUsernameTaken      = errors.New("이미 사용 중인 아이디입니다.")
	ErrEmailTaken         = errors.New("이미 가입된 이메일입니다.")
	ErrMissingCredentials = errors.New("아이디와 비밀번호를 입력하세요")
	ErrUnknownUsername    = errors.New("존재하지 않는 아이디입니다.")
	ErrBadCredentials     = errors.New("아이디 또는 비밀번호가 올바르지 않습니다.")
	ErrAuthUnavailable    = errors.New("로그인 서비스를 사용할 수 없습니다.")
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 6
