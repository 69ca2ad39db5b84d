// Package transcript joins per-segment cleaned texts into one document.
package transcript
