package avatar

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"git.solsynth.dev/hypernet/msgdict/pkg/internal/models"
)

const DefaultGravatarBase = "https://secure.gravatar.com/avatar"

// Resolver turns an avatar source and an email into a URL.
type Resolver struct {
	Salt         string
	UploadBase   string
	GravatarBase string
}

// GravatarHash is the md5 digest of the lowercased email, the key gravatar uses.
func GravatarHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(email)))
	return hex.EncodeToString(sum[:])
}

// UserAvatarHash names the uploaded avatar file of email.
func (v Resolver) UserAvatarHash(email string) string {
	sum := sha1.Sum([]byte(v.Salt + email))
	return hex.EncodeToString(sum[:])
}

func (v Resolver) URL(source string, email string) string {
	if source == models.AvatarSourceUser {
		return fmt.Sprintf("%s/%s?x=x", strings.TrimSuffix(v.UploadBase, "/"), v.UserAvatarHash(email))
	}

	base := v.GravatarBase
	if len(base) == 0 {
		base = DefaultGravatarBase
	}
	return fmt.Sprintf("%s/%s?d=identicon", strings.TrimSuffix(base, "/"), GravatarHash(email))
}
