// Package docs provides generated OpenAPI documentation.
//
// HRBP API
//
//	@title			HRBP API
//	@version		1.0
//	@description	HR Business Partner assistant: answers questions about an employee spreadsheet.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/hrbp
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/hrbp/serve.go -o . --parseDependency --parseInternal
