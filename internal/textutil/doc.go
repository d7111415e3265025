// Package textutil provides the text helpers shared by the matcher and the
// library path builder: a normalized title similarity ratio and display-name
// sanitization for filesystem-safe library folders.
package textutil
