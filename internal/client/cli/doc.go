// Package cli implements userkeeper-cli, the admin command-line tool.
//
// Commands:
//
//	login                     prompt for credentials and print an access token
//	users list                list every account (admin)
//	users create <username>   create an account (admin)
//	whoami                    check a token against the server
//
// Commands that need a token use --token (or USERKEEPER_TOKEN) when given and
// otherwise prompt for credentials and log in first.
package cli
