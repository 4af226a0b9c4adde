package mocks

//go:generate mockery --name Store --srcpkg github.com/salestrack-lab/salestrack/internal/core/storage --output ./storage --outpkg storagemocks
