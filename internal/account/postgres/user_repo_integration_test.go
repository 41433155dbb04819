// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Infinite Joke Contributors

//go:build integration

package postgres_test

import (
	"context"
	"strconv"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/infinitejoke/accounts/internal/account"
	"github.com/infinitejoke/accounts/internal/account/postgres"
)

var _ = Describe("UserRepository", func() {
	var (
		ctx  context.Context
		repo *postgres.UserRepository
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = postgres.NewUserRepository(testPool)
		_, err := testPool.Exec(ctx, `TRUNCATE users RESTART IDENTITY`)
		Expect(err).NotTo(HaveOccurred())
	})

	create := func(username, email string) *account.User {
		u := &account.User{Username: username, Email: email, PasswordHash: "hash"}
		Expect(repo.Create(ctx, u)).To(Succeed())
		return u
	}

	Describe("Create", func() {
		It("assigns increasing ids and timestamps", func() {
			first := create("alice", "a@x.com")
			second := create("bob", "b@x.com")

			Expect(first.ID).To(BeNumerically(">", 0))
			Expect(second.ID).To(BeNumerically(">", first.ID))
			Expect(first.CreatedAt).NotTo(BeZero())
			Expect(first.UpdatedAt).To(Equal(first.CreatedAt))
		})

		It("reports a taken username as a conflict", func() {
			create("alice", "a@x.com")
			err := repo.Create(ctx, &account.User{Username: "alice", Email: "other@x.com", PasswordHash: "h"})
			Expect(err).To(MatchError(account.ErrConflict))
		})

		It("admits exactly one of many concurrent inserts of one username", func() {
			const n = 8
			var (
				wg   sync.WaitGroup
				errs = make([]error, n)
			)
			for i := range n {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					errs[i] = repo.Create(ctx, &account.User{
						Username:     "alice",
						Email:        "alice" + strconv.Itoa(i) + "@x.com",
						PasswordHash: "h",
					})
				}()
			}
			wg.Wait()

			succeeded := 0
			for _, err := range errs {
				if err == nil {
					succeeded++
					continue
				}
				Expect(err).To(MatchError(account.ErrConflict))
			}
			Expect(succeeded).To(Equal(1))

			var rows int
			Expect(testPool.QueryRow(ctx, `SELECT count(*) FROM users WHERE username = 'alice'`).Scan(&rows)).To(Succeed())
			Expect(rows).To(Equal(1))
		})

		It("reports a taken email as a conflict", func() {
			create("alice", "a@x.com")
			err := repo.Create(ctx, &account.User{Username: "bob", Email: "a@x.com", PasswordHash: "h"})
			Expect(err).To(MatchError(account.ErrConflict))
		})
	})

	Describe("lookups", func() {
		It("finds a user by id, username and email", func() {
			created := create("alice", "a@x.com")

			byID, err := repo.GetByID(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(byID.Username).To(Equal("alice"))
			Expect(byID.PasswordHash).To(Equal("hash"))

			byName, err := repo.GetByUsername(ctx, "alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(byName.ID).To(Equal(created.ID))

			byEmail, err := repo.GetByEmail(ctx, "a@x.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(byEmail.ID).To(Equal(created.ID))
		})

		It("matches exactly", func() {
			create("alice", "a@x.com")

			_, err := repo.GetByUsername(ctx, "Alice")
			Expect(err).To(MatchError(account.ErrNotFound))
			_, err = repo.GetByEmail(ctx, "A@x.com")
			Expect(err).To(MatchError(account.ErrNotFound))
		})

		It("returns ErrNotFound for a missing id", func() {
			_, err := repo.GetByID(ctx, 12345)
			Expect(err).To(MatchError(account.ErrNotFound))
		})
	})

	Describe("Update", func() {
		It("stores the new password and timestamp", func() {
			user := create("alice", "a@x.com")
			user.PasswordHash = "new-hash"
			user.UpdatedAt = time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)

			Expect(repo.Update(ctx, user)).To(Succeed())

			stored, err := repo.GetByID(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.PasswordHash).To(Equal("new-hash"))
			Expect(stored.UpdatedAt.Equal(user.UpdatedAt)).To(BeTrue())
			Expect(stored.CreatedAt.Equal(user.CreatedAt)).To(BeTrue())
		})

		It("returns ErrNotFound for a deleted user", func() {
			user := create("alice", "a@x.com")
			_, err := testPool.Exec(ctx, `DELETE FROM users WHERE id = $1`, user.ID)
			Expect(err).NotTo(HaveOccurred())

			Expect(repo.Update(ctx, user)).To(MatchError(account.ErrNotFound))
		})
	})
})
