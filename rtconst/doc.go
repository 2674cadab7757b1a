// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package rtconst defines runtime constants: deferred values that become
// specialization constants of a shader module and are only loaded when a
// concrete pipeline is built.
//
// A constant's description round-trips through Serialize and a Deserializer
// so compiled programs can be cached and later re-bound to a live asset
// manager. Deserialization never fails loudly: an unknown kind yields false.
package rtconst
