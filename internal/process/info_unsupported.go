/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

//go:build !linux

package process

func Resolve(pid int) (*Info, error) {
	return nil, ErrUnsupportedPlatform
}

func tmpPathPlatform(pid int) (string, error) {
	return "", ErrUnsupportedPlatform
}
