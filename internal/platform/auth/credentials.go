package auth

import (
	"crypto/subtle"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Credential is one row of the credential table.
type Credential struct {
	Password string
	Role     string
}

// CredentialsManager loads and authenticates users from a credentials CSV.
// Extra columns (an index column, say) are ignored and usernames are
// normalized to lowercase before lookup.
type CredentialsManager struct {
	credentials map[string]Credential
}

var requiredColumns = []string{"username", "password", "role"}

// NewCredentialsManager reads the credential table. Missing required columns
// are a hard failure: authentication must not proceed with a partial table.
func NewCredentialsManager(path string) (*CredentialsManager, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open credentials file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read credentials header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("credentials file %s missing columns: %s", path, strings.Join(missing, ", "))
	}

	cm := &CredentialsManager{credentials: make(map[string]Credential)}
	for {
		rec, err := r.Read()
		if err != nil {
			break
		}
		cell := func(col string) string {
			i := index[col]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		user := strings.ToLower(cell("username"))
		pwd := cell("password")
		role := cell("role")
		if user == "" || pwd == "" || role == "" {
			continue
		}
		cm.credentials[user] = Credential{Password: pwd, Role: role}
	}
	return cm, nil
}

// Authenticate checks username and password and returns the role on success.
// The comparison is constant-time and an unknown user is indistinguishable
// from a wrong password.
func (cm *CredentialsManager) Authenticate(username, password string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(username))
	cred, ok := cm.credentials[key]
	stored := cred.Password
	if !ok {
		// Compare against a dummy secret so the miss costs the same.
		stored = ""
	}
	match := subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
	if !ok || !match {
		return "", false
	}
	return cred.Role, true
}

// Users returns the number of loaded credential rows.
func (cm *CredentialsManager) Users() int {
	return len(cm.credentials)
}
