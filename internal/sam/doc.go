// SPDX-License-Identifier: MPL-2.0

// Package sam reads AWS SAM templates and drives the sam CLI.
//
// Only the handful of template facts a dependency export needs are extracted:
// each AWS::Serverless::Function's logical id, runtime, handler and code
// location, with Globals.Function applied. CloudFormation short-form intrinsic
// tags (!Ref, !Sub, ...) are accepted anywhere in the template, but the Handler
// and CodeUri of a Python function must be plain strings.
package sam
