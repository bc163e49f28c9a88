package mocks

//go:generate mockgen -destination=./mock_oracle.go -package=mocks github.com/rxtech-lab/argo-race/internal/oracle Oracle
