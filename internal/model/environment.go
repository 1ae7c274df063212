package model

import "strings"

// Environment selects which licensing site a session talks to.
type Environment string

const (
	EnvProd Environment = "prod"
	EnvUAT  Environment = "uat"
)

func (e Environment) String() string { return string(e) }

func (e Environment) Valid() bool { return e == EnvProd || e == EnvUAT }

// ParseEnvironment accepts prod/production and uat, case-insensitively.
func ParseEnvironment(s string) (Environment, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prod", "production":
		return EnvProd, true
	case "uat":
		return EnvUAT, true
	default:
		return "", false
	}
}
