package server

//go:generate swag init -g internal/server/swagger.go -o docs

// @title Figma Bridge API
// @version 0.1
// @description Proxy and persistence layer between design tooling and the Figma REST API.
// @contact.name Figplay Maintainers
// @contact.url https://github.com/figplay/bridge
// @BasePath /
