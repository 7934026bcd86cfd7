//go:generate mockgen -source=../storage.go      -destination=./mock_storage.go      -package=mocks
//go:generate mockgen -source=../auth_api.go     -destination=./mock_auth_api.go     -package=mocks
//go:generate mockgen -source=../settings_api.go -destination=./mock_settings_api.go -package=mocks
//go:generate mockgen -source=../catalog_api.go  -destination=./mock_catalog_api.go  -package=mocks
//go:generate mockgen -source=../publisher.go    -destination=./mock_publisher.go    -package=mocks

package mocks
