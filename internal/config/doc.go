// Package config loads replirouter configuration from YAML.
//
// A configuration names one or more models. Each model carries the primary
// ("master") connection descriptor inline and an optional replications map:
//
//	models:
//	  users:
//	    adapter: postgresql
//	    host: db-primary
//	    name: app
//	    user: app
//	    password: ${DB_PASSWORD}
//	    replications:
//	      slave1:
//	        host: db-replica-1
//	      slave2:
//	        host: db-replica-2
//
// Replica entries inherit every field they leave unset from the primary.
package config
