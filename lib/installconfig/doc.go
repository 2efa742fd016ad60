// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package installconfig provides YAML configuration loading for
// installation-wide defaults.
//
// Configuration is loaded from a single file specified by either the
// FORGE_INSTALL_CONFIG environment variable (via [Load]) or an
// explicit path (via [LoadFile]). There are no fallbacks, no
// ~/.config discovery, and no automatic file search. This ensures
// deterministic, auditable configuration with no hidden overrides.
//
// The configuration file supplies defaults that StartupOptions
// consults before falling back to argv0-derived defaults: the
// output-user-root directory and the install base used when none is
// configured on the command line. It also carries an embedded tool
// bundle path, which StartupOptions does not read.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded.
//
// Key exports:
//
//   - [Config] -- the installation-defaults struct
//   - [Default] -- returns a Config with development-machine defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other forge packages.
package installconfig
