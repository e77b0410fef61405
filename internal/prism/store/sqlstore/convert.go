package sqlstore

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/prismlang/prism/internal/prism/perr"
)

// convertToDB_UUID converts a uuid.UUID to storage DB format on disk.
func convertToDB_UUID(u uuid.UUID) string {
	return u.String()
}

// convertToDB_UUIDPtr converts a *uuid.UUID to storage DB format, using the
// empty string for nil (GrammarRecord.ParentID is nil for a root grammar).
func convertToDB_UUIDPtr(u *uuid.UUID) string {
	if u == nil {
		return ""
	}
	return u.String()
}

// convertToDB_Time converts a time.Time to storage DB format on disk.
func convertToDB_Time(t time.Time) int64 {
	return t.Unix()
}

// convertToDB_ByteSlice converts bytes to storage DB format on disk.
func convertToDB_ByteSlice(b []byte) string {
	if len(b) < 1 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(b)
}

// convertToDB_Diagnostics converts a diagnostics slice to storage DB format
// via JSON, since sqlite has no native array column type.
func convertToDB_Diagnostics(ds []perr.Diagnostic) (string, error) {
	if len(ds) < 1 {
		return "", nil
	}
	b, err := json.Marshal(ds)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// convertFromDB_UUID converts a storage DB format value to a uuid.UUID and
// stores it at the address pointed to by target.
func convertFromDB_UUID(s string, target *uuid.UUID) error {
	u, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*target = u
	return nil
}

// convertFromDB_UUIDPtr converts a storage DB format value to a *uuid.UUID,
// setting target to nil for the empty string.
func convertFromDB_UUIDPtr(s string, target **uuid.UUID) error {
	if s == "" {
		*target = nil
		return nil
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return err
	}
	*target = &u
	return nil
}

// convertFromDB_Time converts a storage DB format value to a time.Time and
// stores it at the address pointed to by target.
func convertFromDB_Time(i int64, target *time.Time) error {
	*target = time.Unix(i, 0)
	return nil
}

// convertFromDB_ByteSlice converts a storage DB format string to an actual
// byte slice and stores it at the address pointed to by target.
func convertFromDB_ByteSlice(s string, target *[]byte) error {
	if s == "" {
		*target = nil
		return nil
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return err
	}
	*target = decoded
	return nil
}

// convertFromDB_Diagnostics converts a storage DB format string back into a
// diagnostics slice.
func convertFromDB_Diagnostics(s string, target *[]perr.Diagnostic) error {
	if s == "" {
		*target = nil
		return nil
	}
	var ds []perr.Diagnostic
	if err := json.Unmarshal([]byte(s), &ds); err != nil {
		return err
	}
	*target = ds
	return nil
}
