// Package sqlite implements the invitations persistence contracts: the
// invitation and guest stores, the user, group and event directories, and
// the transactional unit of work that accepts an invitation together with
// the membership it implies.
//
// Timestamps are stored as UTC unix milliseconds. Status and role columns
// hold their wire labels so list filters can compare them directly.
package sqlite
