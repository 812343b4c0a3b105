// SPDX-License-Identifier: MPL-2.0

// Package tempfile tracks files created during a test and removes them on teardown.
//
// Files are deleted in reverse registration order, so a directory registered
// before the files created inside it is removed after them. The filesystem is a
// go-billy Filesystem: the OS by default, or memfs in unit tests.
package tempfile
