// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stage projects an assistant message onto per-stage display states.
//
// Each stage is Hidden, Loading or Ready. The loading flag is checked before
// data presence, so a stage being recomputed never shows stale content.
// Project is pure: the same message always yields the same Projection.
//
// # Usage
//
//	p := stage.Project(turn)
//	for _, v := range p.Visible() {
//	    if v.Status == stage.Loading {
//	        fmt.Println(v.Label)
//	    }
//	}
package stage
