package models

// UserIDAttribute is the partition key of both tables. It can never be patched.
const UserIDAttribute = "UserId"

// UserProfilesTable is the default DynamoDB table name for user profiles
const UserProfilesTable = "MOFITUserProfiles"

// UserProfile is an open, schemaless profile record keyed by UserId.
type UserProfile = Attributes
