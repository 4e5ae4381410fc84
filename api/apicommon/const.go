// Package apicommon provides common types, constants, and helper functions for the API.
package apicommon

import "time"

// MetadataKey is a type to define the key for the metadata stored in the
// context.
type MetadataKey string

// SubjectMetadataKey is the key used to store the subject of the JWT token in
// the context.
const SubjectMetadataKey MetadataKey = "subject"

// TokenExpiration is the validity of the tokens issued by the API.
const TokenExpiration = 360 * time.Hour // 15 days
