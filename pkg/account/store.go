// Package account は、フラットなJSONファイルを台帳とする
// ユーザー資格情報ストアを提供するのだ。
package account

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"
)

// Role はユーザーの権限区分なのだ。
type Role string

const (
	// RoleAdmin は全ユーザー管理を含むすべての操作ができる区分なのだ。
	RoleAdmin Role = "admin"
	// RoleUser はコンテンツ生成と自分のプロフィール操作だけができる区分なのだ。
	RoleUser Role = "user"
)

// MinPasswordLength はパスワードの最小文字数なのだ。
const MinPasswordLength = 6

var (
	// ErrLoad は台帳ファイルの読み込みに失敗した場合のエラーなのだ。
	ErrLoad = errors.New("ユーザー台帳の読み込みに失敗したのだ")
	// ErrNotFound は指定ユーザーが存在しない場合のエラーなのだ。
	ErrNotFound = errors.New("ユーザーが見つからないのだ")
	// ErrDuplicate はユーザー名が既に使われている場合のエラーなのだ。
	ErrDuplicate = errors.New("そのユーザー名は既に使われているのだ")
	// ErrInvalidUsername はユーザー名が形式に合わない場合のエラーなのだ。
	ErrInvalidUsername = errors.New("ユーザー名は英数字とアンダースコアだけなのだ")
	// ErrInvalidEmail はメールアドレスが形式に合わない場合のエラーなのだ。
	ErrInvalidEmail = errors.New("メールアドレスの形式が正しくないのだ")
	// ErrWeakPassword はパスワードが短すぎる場合のエラーなのだ。
	ErrWeakPassword = errors.New("パスワードは6文字以上必要なのだ")
	// ErrInvalidRole は未知の権限区分が指定された場合のエラーなのだ。
	ErrInvalidRole = errors.New("権限区分は admin か user だけなのだ")
	// ErrInvalidPassword はパスワードが一致しない場合のエラーなのだ。
	ErrInvalidPassword = errors.New("パスワードが一致しないのだ")
	// ErrDeactivated は無効化されたアカウントでの認証エラーなのだ。
	ErrDeactivated = errors.New("このアカウントは無効化されているのだ")
)

var (
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	emailRegex    = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
)

// record は台帳ファイル上の1ユーザー分の生データなのだ。ハッシュを含むので外へは出さない。
type record struct {
	Password  string `json:"password"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	CreatedAt string `json:"created_at"`
	LastLogin string `json:"last_login"`
	Active    bool   `json:"active"`
}

// User はハッシュを取り除いた外向きのユーザービューなのだ。
type User struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	CreatedAt string `json:"created_at"`
	LastLogin string `json:"last_login"`
	Active    bool   `json:"active"`
}

// UpdateOptions は Update で部分更新するフィールドの指定なのだ。nil は「据え置き」なのだ。
type UpdateOptions struct {
	Email    *string
	Role     *Role
	Active   *bool
	Password *string
}

// Store はJSONファイルを台帳とするユーザーストアなのだ。
// すべての変更は台帳ファイル全体の書き直しとして永続化されるのだ。
type Store struct {
	mu     sync.Mutex
	path   string
	hasher Hasher
	users  map[string]record
}

// NewStore は台帳ファイルを読み込んで Store を生成するのだ。
// ファイルが無い場合は空の台帳として始まるが、壊れたファイルはエラーとして突き上げるのだ。
// 黙って空で始めると既存ユーザーが全員締め出されたように見えてしまうのだ。
func NewStore(path string, hasher Hasher) (*Store, error) {
	if hasher == nil {
		hasher = NewBcryptHasher()
	}
	s := &Store{path: path, hasher: hasher, users: make(map[string]record)}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	if err := json.Unmarshal(raw, &s.users); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	return s, nil
}

// Create は新しいユーザーを検証つきで登録して永続化するのだ。
func (s *Store) Create(username, password, email string, role Role) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	if role != RoleAdmin && role != RoleUser {
		return ErrInvalidRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return ErrDuplicate
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("パスワードのハッシュ化に失敗したのだ: %w", err)
	}

	s.users[username] = record{
		Password:  hashed,
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().Format(time.RFC3339),
		Active:    true,
	}
	return s.persist()
}

// Authenticate はユーザー名とパスワードを照合し、成功なら権限区分を返すのだ。
// 成功時は last_login を更新して永続化するのだ。
func (s *Store) Authenticate(username, password string) (Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.users[username]
	if !exists {
		return "", ErrNotFound
	}
	if !rec.Active {
		return "", ErrDeactivated
	}
	if !s.hasher.Verify(rec.Password, password) {
		return "", ErrInvalidPassword
	}

	rec.LastLogin = time.Now().Format(time.RFC3339)
	s.users[username] = rec
	if err := s.persist(); err != nil {
		return "", err
	}
	return rec.Role, nil
}

// Update は指定されたフィールドだけを検証つきで書き換えるのだ。
func (s *Store) Update(username string, opts UpdateOptions) error {
	if opts.Email != nil && !emailRegex.MatchString(*opts.Email) {
		return ErrInvalidEmail
	}
	if opts.Role != nil && *opts.Role != RoleAdmin && *opts.Role != RoleUser {
		return ErrInvalidRole
	}
	if opts.Password != nil && len(*opts.Password) < MinPasswordLength {
		return ErrWeakPassword
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.users[username]
	if !exists {
		return ErrNotFound
	}

	if opts.Email != nil {
		rec.Email = *opts.Email
	}
	if opts.Role != nil {
		rec.Role = *opts.Role
	}
	if opts.Active != nil {
		rec.Active = *opts.Active
	}
	if opts.Password != nil {
		hashed, err := s.hasher.Hash(*opts.Password)
		if err != nil {
			return fmt.Errorf("パスワードのハッシュ化に失敗したのだ: %w", err)
		}
		rec.Password = hashed
	}

	s.users[username] = rec
	return s.persist()
}

// Delete はユーザーを台帳から取り除くのだ。
func (s *Store) Delete(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; !exists {
		return ErrNotFound
	}
	delete(s.users, username)
	return s.persist()
}

// Get はハッシュを含まないユーザービューを返すのだ。
func (s *Store) Get(username string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.users[username]
	if !exists {
		return User{}, ErrNotFound
	}
	return viewOf(username, rec), nil
}

// List は全ユーザーのビューをユーザー名順で返すのだ。
func (s *Store) List() []User {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]User, 0, len(s.users))
	for name, rec := range s.users {
		views = append(views, viewOf(name, rec))
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Username < views[j].Username })
	return views
}

// EnsureDefaults は admin と user の初期アカウントが無ければ作るのだ。
// 初回起動時だけ意味を持つ種まきで、既存アカウントには一切触らないのだ。
func (s *Store) EnsureDefaults(adminPassword, userPassword string) error {
	defaults := []struct {
		name     string
		password string
		email    string
		role     Role
	}{
		{"admin", adminPassword, "admin@example.com", RoleAdmin},
		{"user", userPassword, "user@example.com", RoleUser},
	}

	for _, d := range defaults {
		if err := s.Create(d.name, d.password, d.email, d.role); err != nil {
			if errors.Is(err, ErrDuplicate) {
				continue
			}
			return err
		}
	}
	return nil
}

// persist は台帳全体をJSONとして書き直すのだ。呼び出し側がロックを握っている前提なのだ。
func (s *Store) persist() error {
	encoded, err := json.MarshalIndent(s.users, "", "    ")
	if err != nil {
		return fmt.Errorf("台帳のエンコードに失敗したのだ: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("台帳ディレクトリの作成に失敗したのだ: %w", err)
		}
	}
	if err := os.WriteFile(s.path, encoded, 0o600); err != nil {
		return fmt.Errorf("台帳の書き出しに失敗したのだ: %w", err)
	}
	return nil
}

func viewOf(name string, rec record) User {
	return User{
		Username:  name,
		Email:     rec.Email,
		Role:      rec.Role,
		CreatedAt: rec.CreatedAt,
		LastLogin: rec.LastLogin,
		Active:    rec.Active,
	}
}
