// Package model holds the canonical, protocol-independent forwarding-table
// entities (groups, flows, meters) and the requests callers make against them.
package model
