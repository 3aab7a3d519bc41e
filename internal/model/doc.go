// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package model loads grid files: the HCL documents that declare the target
// networks and the units to deploy.
//
// A grid may be split across any number of .hcl files. Files are read in
// lexical path order and blocks in file order; that sequence is the
// declaration order the executor uses to break ties.
package model
