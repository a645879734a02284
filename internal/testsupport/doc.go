// Package testsupport provides shared helpers for package tests: temp-dir
// backed configs, document stores, and in-memory pipeline dependencies.
package testsupport
