// Copyright 2024 The arcdb Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command arcdb inspects and compacts the resource tables of archives.
package main

func main() {
	execute()
}
