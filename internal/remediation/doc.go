// Package remediation turns an exposure timeline into an ordered action plan.
//
// The plan follows a fixed conditional skeleton beginning with credential
// rotation. Rotation commands come from a vendor catalog keyed by tokens in
// the secret identifier; the built-in catalog can be extended or overridden
// from a YAML file.
package remediation
