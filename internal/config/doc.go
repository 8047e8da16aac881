// Package config loads and validates vuego.json, the project
// configuration file.
//
// A minimal file looks like:
//
//	{
//	  "name": "shop",
//	  "ssr": {
//	    "mode": "node",
//	    "bundle": "dist/server.js"
//	  }
//	}
//
// Every field has a default; Load fills them in and validates the
// result, so callers never see a partially configured value.
package config
