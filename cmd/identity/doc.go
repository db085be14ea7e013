// Package identity holds vigil's security principals and credential
// verification. The session subsystem treats it as the external
// credential-check collaborator: login calls VerifyCredentials and
// everything after that is registry policy.
package identity
