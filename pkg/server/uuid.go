package server

import (
	"crypto/md5"

	"github.com/google/uuid"
)

// offlineUUID derives the cracked (non-authenticated) identity for a
// username: MD5 of "OfflinePlayer:"+username with the UUID v3
// version/variant bits forced, matching the client's own
// UUID.nameUUIDFromBytes. There is no namespace concatenation — unlike
// uuid.NewMD5, which always hashes a namespace UUID ahead of the name.
func offlineUUID(username string) uuid.UUID {
	sum := md5.Sum([]byte("OfflinePlayer:" + username))
	var u uuid.UUID
	copy(u[:], sum[:])
	u[6] = (u[6] & 0x0f) | 0x30
	u[8] = (u[8] & 0x3f) | 0x80
	return u
}
