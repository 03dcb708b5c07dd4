// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package backend resolves a working directory to something that can pull
// and push its state document. The default path shells out to the
// terraform/terragrunt CLI, which honors locking and backend auth the same
// way a plan would. The s3 and remote backends talk to the storage directly
// for setups where the CLI is not available.
package backend
