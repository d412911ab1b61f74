// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package utils

import (
	"crypto/tls"
	"crypto/x509"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// CustomCACertsPathEnv lists extra CA bundles (files or directories) trusted by the chat client,
// separated by the OS path list separator.
const CustomCACertsPathEnv = "AICHAT_CA_CERTS_PATH"

// GetSecureTLSConfig returns a TLS 1.2+ configuration backed by the system pool plus any custom CAs.
func GetSecureTLSConfig() *tls.Config {
	rootCAs, err := x509.SystemCertPool()
	if err != nil {
		log.Warnf("Failed to load system certificate pool, using empty pool: %v", err)
		rootCAs = x509.NewCertPool()
	}
	loadCustomCACerts(rootCAs, os.Getenv(CustomCACertsPathEnv))

	return &tls.Config{
		RootCAs:    rootCAs,
		MinVersion: tls.VersionTLS12,
	}
}

func loadCustomCACerts(pool *x509.CertPool, pathList string) int {
	loaded := 0
	for _, path := range filepath.SplitList(pathList) {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			log.Warnf("Failed to access custom CA certificate path %s: %v", path, err)
			continue
		}
		if !info.IsDir() {
			if loadCertFromFile(pool, path) {
				loaded++
			}
			continue
		}
		err = filepath.WalkDir(path, func(filePath string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			ext := strings.ToLower(filepath.Ext(filePath))
			if !d.IsDir() && (ext == ".crt" || ext == ".pem") && loadCertFromFile(pool, filePath) {
				loaded++
			}
			return nil
		})
		if err != nil {
			log.Warnf("Failed to walk directory %s for certificates: %v", path, err)
		}
	}
	return loaded
}

func loadCertFromFile(pool *x509.CertPool, filePath string) bool {
	data, err := os.ReadFile(filePath)
	if err != nil {
		log.Warnf("Failed to read certificate file %s: %v", filePath, err)
		return false
	}
	if !pool.AppendCertsFromPEM(data) {
		log.Warnf("Failed to parse certificate from file %s", filePath)
		return false
	}
	log.Infof("Loaded custom CA certificate from %s", filePath)
	return true
}
