// SPDX-License-Identifier: MPL-2.0

package testutil

import "testing"

const (
	// Pyproject is a Poetry project with a default dev group and an optional docs group.
	Pyproject = `[tool.poetry]
name = "orders-service"
version = "0.1.0"

[tool.poetry.dependencies]
python = "^3.12"
boto3 = "^1.34"

[tool.poetry.group.dev.dependencies]
pytest = "*"

[tool.poetry.group.docs]
optional = true

[tool.poetry.group.docs.dependencies]
mkdocs = "*"

[tool.poetry.extras]
postgres = ["psycopg"]
`

	// Template declares two Python functions and one Node.js function.
	Template = `Transform: AWS::Serverless-2016-10-31
Globals:
  Function:
    Runtime: python3.12
Resources:
  OrdersApi:
    Type: AWS::Serverless::Function
    Properties:
      CodeUri: orders/
      Handler: src/app.lambda_handler
  Worker:
    Type: AWS::Serverless::Function
    Properties:
      Runtime: nodejs20.x
      Handler: index.handler
  Billing:
    Type: AWS::Serverless::Function
    Properties:
      CodeUri: billing/
      Handler: app.handler
`
)

// Project lays out a Poetry + SAM project in a fresh temp directory and returns its root.
// When locked is true an empty poetry.lock is written as well.
func Project(t testing.TB, locked bool) string {
	t.Helper()
	dir := t.TempDir()
	MustWriteFile(t, dir, "pyproject.toml", Pyproject)
	MustWriteFile(t, dir, "template.yml", Template)
	if locked {
		MustWriteFile(t, dir, "poetry.lock", "# locked\n")
	}
	return dir
}
